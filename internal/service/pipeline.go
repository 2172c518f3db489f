package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bms-ged/backend/internal/ai"
	"github.com/bms-ged/backend/internal/models"
	"github.com/bms-ged/backend/internal/storage"
)

var ErrValidation = errors.New("validation failed")

// ImageMismatchError is returned when the validator explicitly judged the
// photo inconsistent with the complaint text. Indeterminate outcomes never
// produce it.
type ImageMismatchError struct {
	Reason string
}

func (e *ImageMismatchError) Error() string {
	return "photo does not match the complaint description: " + e.Reason
}

const (
	rephraseTimeout  = 10 * time.Second
	sentimentTimeout = 5 * time.Second
)

// Draft carries the in-progress complaint state explicitly through the
// pipeline stages: cached rephrased text, carried-forward image and notes,
// and the responder selection from the conversational layer.
type Draft struct {
	BuildingID  int64
	SubmitterID int64
	Category    models.Category
	Title       string
	Description string

	RephrasedDescription string
	ImageData            []byte
	ImageContentType     string
	ImageNotes           string
	PictureURLs          []string

	ProposedSolution string
	Selection        string
	ContactOverride  string
}

type ComplaintWriter interface {
	InsertComplaint(ctx context.Context, c models.Complaint) (int64, error)
}

// Pipeline sequences enrichment, synthesis, validation, assignment,
// persistence and fan-out for the two terminal submission variants.
type Pipeline struct {
	Complaints ComplaintWriter
	Synth      *Synthesizer
	Images     *ImageValidator
	Assigner   *AssignmentResolver
	Notifier   *Notifier
	Uploader   storage.Uploader
	AI         ai.Completer
	Logger     zerolog.Logger
}

type Outcome struct {
	ComplaintID   int64           `json:"complaint_id"`
	Category      models.Category `json:"category"`
	Rephrased     string          `json:"rephrased_description"`
	Solution      string          `json:"solution,omitempty"`
	AssignedTo    *int64          `json:"assigned_to,omitempty"`
	Pictures      []string        `json:"pictures"`
	Sentiment     float64         `json:"sentiment"`
	ImageTooLarge bool            `json:"image_too_large,omitempty"`
	FanOut        *FanOutResult   `json:"-"`
}

// SubmitResolved persists a self-resolved complaint. Resolved records never
// carry an assignee and trigger no fan-out.
func (p *Pipeline) SubmitResolved(ctx context.Context, draft *Draft) (Outcome, error) {
	return p.submit(ctx, draft, models.StatusResolved)
}

// SubmitPending persists a pending complaint with a resolved responder and
// fans out notifications after the row is committed.
func (p *Pipeline) SubmitPending(ctx context.Context, draft *Draft) (Outcome, error) {
	return p.submit(ctx, draft, models.StatusPending)
}

func (p *Pipeline) submit(ctx context.Context, draft *Draft, status models.Status) (Outcome, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return Outcome{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(draft.Description) == "" {
		return Outcome{}, fmt.Errorf("%w: description is required", ErrValidation)
	}

	if !ValidCategory(draft.Category) || draft.Category == "" {
		draft.Category = InferCategory(draft.Title + " " + draft.Description)
	}

	rephrased := p.rephrase(ctx, draft)
	sentiment := p.sentiment(ctx, rephrased)

	image := ai.ImageRef{Data: draft.ImageData, ContentType: draft.ImageContentType}
	check := p.Images.Validate(ctx, rephrased, image, draft.ImageNotes)
	draft.ImageNotes = check.Notes
	if !check.Match {
		return Outcome{}, &ImageMismatchError{Reason: check.Reason}
	}

	pictures, tooLarge := p.normalizePictures(ctx, draft)

	c := models.Complaint{
		BuildingID:           draft.BuildingID,
		SubmitterID:          draft.SubmitterID,
		Category:             draft.Category,
		Title:                draft.Title,
		Description:          draft.Description,
		RephrasedDescription: rephrased,
		Status:               status,
		Pictures:             pictures,
		Sentiment:            sentiment,
	}

	switch status {
	case models.StatusResolved:
		solution := draft.ProposedSolution
		if solution == "" {
			solution = p.Synth.Propose(ctx, draft.Title, rephrased, draft.Category).Solution
		}
		c.Solution = solution
		c.AssignedTo = nil
	case models.StatusPending:
		resolution := p.Assigner.Resolve(ctx, draft.Category)
		responder := resolution.Commit(draft.Selection)
		c.AssignedTo = &responder.ID
		c.Solution = draft.ProposedSolution
	default:
		return Outcome{}, fmt.Errorf("%w: unsupported submission status %q", ErrValidation, status)
	}

	id, err := p.Complaints.InsertComplaint(ctx, c)
	if err != nil {
		return Outcome{}, fmt.Errorf("insert complaint: %w", err)
	}
	c.ID = id

	outcome := Outcome{
		ComplaintID:   id,
		Category:      c.Category,
		Rephrased:     rephrased,
		Solution:      c.Solution,
		AssignedTo:    c.AssignedTo,
		Pictures:      pictures,
		Sentiment:     sentiment,
		ImageTooLarge: tooLarge,
	}

	// Fan-out runs only after the row is committed; its failures never
	// invalidate the returned id.
	if status == models.StatusPending {
		result := p.Notifier.FanOut(ctx, c, draft.ContactOverride)
		outcome.FanOut = &result
	}

	return outcome, nil
}

// rephrase computes the rephrased description once per draft and caches it.
func (p *Pipeline) rephrase(ctx context.Context, draft *Draft) string {
	if draft.RephrasedDescription != "" {
		return draft.RephrasedDescription
	}
	prompt := "Rephrase this building maintenance complaint clearly and politely in one or two sentences, keeping every factual detail:\n\n" + draft.Description
	answer, err := p.AI.Complete(ctx, prompt, ai.CompleteOptions{MaxTokens: 120, Timeout: rephraseTimeout})
	if err != nil || strings.TrimSpace(answer) == "" {
		p.Logger.Warn().Err(err).Msg("rephrase failed, keeping original description")
		draft.RephrasedDescription = draft.Description
		return draft.Description
	}
	draft.RephrasedDescription = strings.TrimSpace(answer)
	return draft.RephrasedDescription
}

// sentiment scores the complaint tone, defaulting to neutral on any failure.
func (p *Pipeline) sentiment(ctx context.Context, text string) float64 {
	prompt := "Rate the sentiment of this complaint as a number between -1 and 1, where -1 is very negative and 1 is very positive. Respond with only the number.\n\n" + text
	answer, err := p.AI.Complete(ctx, prompt, ai.CompleteOptions{MaxTokens: 10, Timeout: sentimentTimeout})
	if err != nil {
		p.Logger.Warn().Err(err).Msg("sentiment scoring failed, defaulting to neutral")
		return 0
	}
	score, ok := parseFirstFloat(answer)
	if !ok {
		return 0
	}
	return ClampSentiment(score)
}

// normalizePictures turns the draft's picture input into a list of
// resolvable URLs: inline data is uploaded (single-element list), an
// existing URL list passes through, anything else is the empty list.
func (p *Pipeline) normalizePictures(ctx context.Context, draft *Draft) ([]string, bool) {
	if len(draft.ImageData) > 0 {
		if len(draft.ImageData) > storage.MaxImageBytes {
			p.Logger.Warn().Int("size", len(draft.ImageData)).Msg("image over size cap, complaint proceeds without picture")
			return []string{}, true
		}
		res, err := p.Uploader.Upload(ctx, draft.ImageData, draft.ImageContentType)
		if err != nil {
			tooLarge := errors.Is(err, storage.ErrImageTooLarge)
			p.Logger.Warn().Err(err).Msg("image upload failed, complaint proceeds without picture")
			return []string{}, tooLarge
		}
		return []string{res.PublicURL}, false
	}
	if len(draft.PictureURLs) > 0 {
		urls := make([]string, 0, len(draft.PictureURLs))
		for _, u := range draft.PictureURLs {
			if strings.TrimSpace(u) != "" {
				urls = append(urls, u)
			}
		}
		return urls, false
	}
	return []string{}, false
}

func parseFirstFloat(s string) (float64, bool) {
	for _, field := range strings.Fields(strings.ReplaceAll(s, ",", " ")) {
		field = strings.Trim(field, "()[]")
		if v, err := strconv.ParseFloat(field, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}
