package contact

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func validSubmission() Submission {
	return Submission{
		Name:    "Alice Example",
		Email:   "alice@example.com",
		Subject: "Project inquiry",
		Message: "Hello, I would like to talk about a project.",
	}
}

func TestValidateSubmission_Valid(t *testing.T) {
	in := validSubmission()
	in.Name = "  Alice Example \n"

	got, err := ValidateSubmission(in)
	require.NoError(t, err)
	require.Equal(t, "Alice Example", got.Name)
	require.Equal(t, in.Email, got.Email)
}

func TestValidateSubmission_Violations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Submission)
		field   string
		message string
	}{
		{"name too short", func(s *Submission) { s.Name = "A" }, "name", "Name must be at least 2 characters"},
		{"name blank after trim", func(s *Submission) { s.Name = "   " }, "name", "Name is required"},
		{"name too long", func(s *Submission) { s.Name = strings.Repeat("n", 101) }, "name", "Name must not exceed 100 characters"},
		{"bad email", func(s *Submission) { s.Email = "not-an-email" }, "email", "Please enter a valid email address"},
		{"email too long", func(s *Submission) { s.Email = strings.Repeat("a", 250) + "@example.com" }, "email", "Email address too long"},
		{"subject too short", func(s *Submission) { s.Subject = "Hey" }, "subject", "Subject must be at least 5 characters"},
		{"subject too long", func(s *Submission) { s.Subject = strings.Repeat("s", 201) }, "subject", "Subject must not exceed 200 characters"},
		{"message too short", func(s *Submission) { s.Message = "short" }, "message", "Message must be at least 10 characters"},
		{"message too long", func(s *Submission) { s.Message = strings.Repeat("m", 5001) }, "message", "Message must not exceed 5000 characters"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := validSubmission()
			tc.mutate(&in)

			_, err := ValidateSubmission(in)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			require.Equal(t, []FieldViolation{{Field: tc.field, Message: tc.message}}, verr.Violations)
		})
	}
}

func TestValidateSubmission_CountsCharactersNotBytes(t *testing.T) {
	in := validSubmission()
	in.Name = strings.Repeat("é", 100)

	_, err := ValidateSubmission(in)
	require.NoError(t, err)
}

func TestValidateSubmission_ReportsEveryField(t *testing.T) {
	_, err := ValidateSubmission(Submission{})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Violations, 4)
	require.Contains(t, verr.Error(), "name: Name is required")
}
