package matching

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrDataIncomplete  = errors.New("profile or preferences missing")
	ErrInvalidUserID   = errors.New("invalid user id")
	ErrRecordNotFound  = errors.New("match record not found")
	ErrIndexOutOfRange = errors.New("match index out of range")
	ErrRunInProgress   = errors.New("match generation already running for prompt")
	ErrSelfMatch       = errors.New("cannot match a user with themselves")
	ErrCapacityReached = errors.New("match record already at capacity")
	ErrAlreadyMatched  = errors.New("users already matched for prompt")
	ErrBlocked         = errors.New("users have blocked each other")
	ErrInvalidPrompt   = errors.New("prompt key is required")
)

// IndexOutOfRangeError reports a reveal index outside the record's partner list.
type IndexOutOfRangeError struct {
	Index int
	Len   int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("match index %d out of range (record has %d matches)", e.Index, e.Len)
}

func (e *IndexOutOfRangeError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}

// UserError ties a non-fatal failure to the respondent it affected.
type UserError struct {
	UserID string
	Err    error
}

func (e *UserError) Error() string {
	return fmt.Sprintf("user %s: %v", e.UserID, e.Err)
}

func (e *UserError) Unwrap() error {
	return e.Err
}

type userErrorJSON struct {
	UserID string `json:"user_id"`
	Error  string `json:"error"`
}

// MarshalJSON flattens the wrapped error to its message so reports can carry write failures.
func (e *UserError) MarshalJSON() ([]byte, error) {
	out := userErrorJSON{UserID: e.UserID}
	if e.Err != nil {
		out.Error = e.Err.Error()
	}
	return json.Marshal(out)
}

func (e *UserError) UnmarshalJSON(data []byte) error {
	var in userErrorJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	e.UserID = in.UserID
	e.Err = nil
	if in.Error != "" {
		e.Err = errors.New(in.Error)
	}
	return nil
}
