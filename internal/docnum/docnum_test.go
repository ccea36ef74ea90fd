package docnum

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestInvoiceTokenUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		token := InvoiceToken()
		require.True(t, strings.HasPrefix(token, "INV-"))

		_, err := uuid.Parse(strings.TrimPrefix(token, "INV-"))
		require.NoError(t, err)

		_, dup := seen[token]
		require.False(t, dup, "duplicate token %s", token)
		seen[token] = struct{}{}
	}
}
