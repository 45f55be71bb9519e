package telephony

import (
	"github.com/twilio/twilio-go/twiml"
)

// Voice response documents for the scripted interaction. The conversation
// script itself lives in internal/conversation; this file only renders.

const sayVoice = "Polly.Joanna"

// FallbackVoiceDoc is returned when rendering fails; webhook endpoints must
// answer 200 with valid TwiML or the provider retries indefinitely.
const FallbackVoiceDoc = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// RenderGreeting produces the first-turn document: a spoken greeting followed
// by a speech gather posting the recognized utterance to gatherAction.
func RenderGreeting(greeting, prompt, gatherAction string) (string, error) {
	say := &twiml.VoiceSay{Message: greeting, Voice: sayVoice}
	gather := &twiml.VoiceGather{
		Input:         "speech",
		Action:        gatherAction,
		Method:        "POST",
		SpeechTimeout: "auto",
		InnerElements: []twiml.Element{
			&twiml.VoiceSay{Message: prompt, Voice: sayVoice},
		},
	}
	return twiml.Voice([]twiml.Element{say, gather})
}

// RenderReply produces a single spoken reply document.
func RenderReply(reply string) (string, error) {
	say := &twiml.VoiceSay{Message: reply, Voice: sayVoice}
	return twiml.Voice([]twiml.Element{say})
}
