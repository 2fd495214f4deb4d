// internal/matching/dto.go
package matching

// DTOs for API requests/responses

type RevealRequestDTO struct {
	Index *int `json:"index" validate:"required,min=0,max=2"`
}

type ManualMatchDTO struct {
	UserA string `json:"user_a" validate:"required,max=128"`
	UserB string `json:"user_b" validate:"required,max=128,nefield=UserA"`
}

// GenerateResponse wraps a run report. Write failures are listed in report.write_errors.
type GenerateResponse struct {
	Report *Report `json:"report"`
}

func newGenerateResponse(r *Report) *GenerateResponse {
	return &GenerateResponse{Report: r}
}
