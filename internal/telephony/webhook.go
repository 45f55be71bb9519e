package telephony

import (
	"net/http"
	"strings"

	"campaign-dialer/internal/campaign"
)

// Twilio delivers voice webhooks as application/x-www-form-urlencoded.
// Keep parsing minimal and provider-adapter-only; transition decisions live
// in internal/campaign.

// AnswerForm captures the fields of the answer webhook (called party picked up).
type AnswerForm struct {
	CallSid string
	From    string
	To      string
}

func ParseAnswer(r *http.Request) (AnswerForm, error) {
	if err := r.ParseForm(); err != nil {
		return AnswerForm{}, err
	}
	return AnswerForm{
		CallSid: r.PostFormValue("CallSid"),
		From:    strings.TrimSpace(r.PostFormValue("From")),
		To:      strings.TrimSpace(r.PostFormValue("To")),
	}, nil
}

// StatusForm captures the fields of the status callback webhook.
type StatusForm struct {
	CallSid    string
	CallStatus string
	To         string
}

func ParseStatusCallback(r *http.Request) (StatusForm, error) {
	if err := r.ParseForm(); err != nil {
		return StatusForm{}, err
	}
	return StatusForm{
		CallSid:    r.PostFormValue("CallSid"),
		CallStatus: r.PostFormValue("CallStatus"),
		To:         strings.TrimSpace(r.PostFormValue("To")),
	}, nil
}

// SpeechForm captures one recognized utterance from a speech gather.
type SpeechForm struct {
	CallSid      string
	SpeechResult string
}

func ParseSpeech(r *http.Request) (SpeechForm, error) {
	if err := r.ParseForm(); err != nil {
		return SpeechForm{}, err
	}
	return SpeechForm{
		CallSid:      r.PostFormValue("CallSid"),
		SpeechResult: r.PostFormValue("SpeechResult"),
	}, nil
}

// MapCallStatus translates a provider status string to the local enumeration.
// Unknown strings return false; callers acknowledge them without a transition.
func MapCallStatus(s string) (campaign.CallStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "queued", "initiated":
		return campaign.StatusInitiated, true
	case "ringing":
		return campaign.StatusRinging, true
	case "answered", "in-progress":
		return campaign.StatusInProgress, true
	case "completed":
		return campaign.StatusCompleted, true
	case "busy":
		return campaign.StatusBusy, true
	case "no-answer":
		return campaign.StatusNoAnswer, true
	case "failed", "canceled":
		return campaign.StatusFailed, true
	default:
		return "", false
	}
}
