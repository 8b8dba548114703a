package payment_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rcarvalho-pb/payment_checkout-go/internal/domain/payment"
)

func TestStatus_TransitionsOnlyForward(t *testing.T) {
	all := []payment.Status{payment.StatusPending, payment.StatusPaid, payment.StatusFailed}

	for _, from := range all {
		for _, to := range all {
			want := from == to || from == payment.StatusPending
			require.Equalf(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestParseMethod_AcceptsLegacyNames(t *testing.T) {
	m, ok := payment.ParseMethod("pix")
	require.True(t, ok)
	require.Equal(t, payment.MethodDirectTransfer, m)

	m, ok = payment.ParseMethod("CREDIT_CARD")
	require.True(t, ok)
	require.Equal(t, payment.MethodCard, m)
	require.True(t, m.RequiresCheckout())

	_, ok = payment.ParseMethod("BOLETO")
	require.False(t, ok)
}

func TestParseStatus(t *testing.T) {
	s, ok := payment.ParseStatus("FAIL")
	require.True(t, ok)
	require.Equal(t, payment.StatusFailed, s)
	require.True(t, s.Terminal())

	s, ok = payment.ParseStatus(" pending ")
	require.True(t, ok)
	require.False(t, s.Terminal())

	_, ok = payment.ParseStatus("REFUNDED")
	require.False(t, ok)
}
