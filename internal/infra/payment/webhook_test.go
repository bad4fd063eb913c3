package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	secret := "whsec_test"
	sig := Sign(body, secret)

	assert.True(t, VerifySignature(body, sig, secret))

	//ボディ改ざん
	assert.False(t, VerifySignature([]byte(`{"id":"evt_2"}`), sig, secret))
	//別シークレットで作った署名
	assert.False(t, VerifySignature(body, Sign(body, "other"), secret))
	//署名・シークレットの欠落
	assert.False(t, VerifySignature(body, "", secret))
	assert.False(t, VerifySignature(body, sig, ""))
}

func TestParseEvent(t *testing.T) {
	body := []byte(`{
		"id": "evt_1",
		"type": "payment_intent.succeeded",
		"data": {"object": {"id": "pi_1", "status": "succeeded", "metadata": {"order_id": "10"}}}
	}`)

	ev, err := ParseEvent(body)

	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, EventIntentSucceeded, ev.Type)
	assert.Equal(t, "pi_1", ev.Data.Object.ID)
	assert.Equal(t, "10", ev.Data.Object.Metadata["order_id"])
}

func TestParseEvent_Malformed(t *testing.T) {
	_, err := ParseEvent([]byte(`not json`))
	assert.Error(t, err)

	_, err = ParseEvent([]byte(`{"type":"payment_intent.succeeded"}`))
	assert.Error(t, err)

	_, err = ParseEvent([]byte(`{"id":"evt_1"}`))
	assert.Error(t, err)
}

func TestParseEvent_FailureReason(t *testing.T) {
	body := []byte(`{
		"id": "evt_2",
		"type": "payment_intent.payment_failed",
		"data": {"object": {"id": "pi_1", "last_payment_error": {"message": "card declined"}}}
	}`)

	ev, err := ParseEvent(body)

	require.NoError(t, err)
	require.NotNil(t, ev.Data.Object.LastPaymentError)
	assert.Equal(t, "card declined", ev.Data.Object.LastPaymentError.Message)
}
