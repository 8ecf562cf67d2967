package enum_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sangkips/paypoint/internal/domain/enum"
)

func TestParseErrorType(t *testing.T) {
	tests := []struct {
		raw  string
		want enum.ErrorType
	}{
		{"process", enum.ErrorTypeProcess},
		{"exception", enum.ErrorTypeException},
		{"validation", enum.ErrorTypeValidation},
		{"preprocessException", enum.ErrorTypePreprocessException},
		{"unknown", enum.ErrorTypeUnknown},
		{"", enum.ErrorTypeUnknown},
		{"somethingTheServerAddedLater", enum.ErrorTypeUnknown},
		{"Process", enum.ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, enum.ParseErrorType(tt.raw))
		})
	}
}

func TestErrorTypeIsLocal(t *testing.T) {
	assert.True(t, enum.ErrorTypePreprocessException.IsLocal())
	assert.False(t, enum.ErrorTypeProcess.IsLocal())
	assert.False(t, enum.ErrorTypeException.IsLocal())
	assert.False(t, enum.ErrorTypeUnknown.IsLocal())
}
