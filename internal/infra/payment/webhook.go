package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
)

// webhookイベント種別
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
)

type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object Intent `json:"object"`
	} `json:"data"`
}

// 生のボディに対するHMAC-SHA256（hex）を共有シークレットで検証する。
// ネットワークを伴わないローカル検証
func VerifySignature(payload []byte, signature string, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

// 署名用。テストとローカル再現に使う
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func ParseEvent(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, err
	}
	if ev.ID == "" || ev.Type == "" {
		return Event{}, errors.New("malformed webhook event")
	}
	return ev, nil
}
