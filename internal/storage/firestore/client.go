package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// ClientConfig selects the project and credentials. CredentialsJSON wins over CredentialsFile; with
// neither, application default credentials are used.
type ClientConfig struct {
	ProjectID       string
	CredentialsFile string
	CredentialsJSON string
}

// NewClient opens a Firestore client through the Firebase app.
func NewClient(ctx context.Context, cfg ClientConfig) (*firestore.Client, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("firestore project id is required")
	}

	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get firestore client: %w", err)
	}
	return client, nil
}
