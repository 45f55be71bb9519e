package httpapi

import (
	"io"
	"net/http"
	"strings"

	"campaign-dialer/internal/campaign"
	"campaign-dialer/internal/conversation"
	"campaign-dialer/internal/telephony"
	"campaign-dialer/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal modules, respond.
//
// Webhook endpoints (/call-handler, /process-speech, /call-status-callback)
// always answer 200: the provider delivers at-least-once and retries
// indefinitely on anything else. Failures there are logged, never surfaced.
type Handlers struct {
	Campaigns *campaign.Manager
}

type uploadRequest struct {
	Numbers []string `json:"numbers"`
}

// Upload accepts an ingestion payload and starts a new campaign, superseding
// any campaign still draining. The payload is either JSON {"numbers": [...]}
// or a plain body with one number per line; validation beyond trimming is the
// normalizer's job inside the dispatch loop.
func (h Handlers) Upload(c *gin.Context) {
	log := logger.FromGin(c)
	if h.Campaigns == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "campaign manager not configured"})
		return
	}

	var raw []string
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var req uploadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		raw = req.Numbers
	} else {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
			return
		}
		raw = strings.Split(string(body), "\n")
	}

	accepted := make([]string, 0, len(raw))
	rejected := 0
	for _, n := range raw {
		if strings.TrimSpace(n) == "" {
			rejected++
			continue
		}
		accepted = append(accepted, strings.TrimSpace(n))
	}
	if len(accepted) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "no numbers provided"})
		return
	}

	id := h.Campaigns.Start(accepted)
	log.Info("campaign started from upload", "campaign_id", id, "accepted", len(accepted), "rejected", rejected)

	c.JSON(http.StatusOK, gin.H{
		"campaign_id": id,
		"accepted":    len(accepted),
		"rejected":    rejected,
		"total":       len(accepted),
	})
}

// Status returns the progress snapshot of the current campaign.
func (h Handlers) Status(c *gin.Context) {
	if h.Campaigns == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "campaign manager not configured"})
		return
	}
	c.JSON(http.StatusOK, h.Campaigns.Snapshot())
}

// CallHandler receives the answer webhook, marks the call in_progress, and
// opens the scripted interaction with a greeting and a speech gather.
func (h Handlers) CallHandler(c *gin.Context) {
	log := logger.FromGin(c)
	ctx := c.Request.Context()

	form, err := telephony.ParseAnswer(c.Request)
	if err != nil {
		log.Warn("answer webhook parse failed", "err", err)
		respondVoice(c, telephony.FallbackVoiceDoc)
		return
	}

	if form.CallSid != "" && h.Campaigns != nil {
		h.Campaigns.CallAnswered(ctx, form.CallSid, form.To)
	}

	doc, err := telephony.RenderGreeting(conversation.Greeting, conversation.Prompt, "/process-speech")
	if err != nil {
		log.Error("greeting render failed", "err", err)
		doc = telephony.FallbackVoiceDoc
	}
	respondVoice(c, doc)
}

// ProcessSpeech handles one conversation turn.
func (h Handlers) ProcessSpeech(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := telephony.ParseSpeech(c.Request)
	if err != nil {
		log.Warn("speech webhook parse failed", "err", err)
		respondVoice(c, telephony.FallbackVoiceDoc)
		return
	}

	reply := conversation.Respond(form.SpeechResult)
	// Transcript audit; campaign history stays status-only.
	log.Info("conversation turn",
		"call_sid", form.CallSid,
		"utterance", form.SpeechResult,
		"reply", reply.Text,
		"escalate", reply.Escalate,
	)

	doc, err := telephony.RenderReply(reply.Text)
	if err != nil {
		log.Error("reply render failed", "err", err)
		doc = telephony.FallbackVoiceDoc
	}
	respondVoice(c, doc)
}

// StatusCallback reconciles one status-update event. It acknowledges with
// 200 even when the id is unknown, the status unmapped, or the transition
// rejected as stale.
func (h Handlers) StatusCallback(c *gin.Context) {
	log := logger.FromGin(c)
	ctx := c.Request.Context()

	form, err := telephony.ParseStatusCallback(c.Request)
	if err != nil {
		log.Warn("status webhook parse failed", "err", err)
		c.Status(http.StatusOK)
		return
	}

	status, ok := telephony.MapCallStatus(form.CallStatus)
	switch {
	case form.CallSid == "":
		log.Warn("status event without call sid", "status", form.CallStatus)
	case !ok:
		log.Warn("unmapped provider status", "call_sid", form.CallSid, "status", form.CallStatus)
	case h.Campaigns != nil:
		if applied := h.Campaigns.ApplyEvent(ctx, form.CallSid, form.To, status, ""); !applied {
			log.Debug("status event absorbed", "call_sid", form.CallSid, "status", status)
		}
	}
	c.Status(http.StatusOK)
}

func respondVoice(c *gin.Context, doc string) {
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, doc)
}
