package assistant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"ubuhinzi360/server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel replies with a fixed text and records what it was sent
type fakeModel struct {
	reply    string
	err      error
	noChoice bool

	messages []llms.MessageContent
	options  llms.CallOptions
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	f.options = llms.CallOptions{}
	for _, opt := range options {
		opt(&f.options)
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.noChoice {
		return &llms.ContentResponse{}, nil
	}
	if f.options.StreamingFunc != nil {
		for _, word := range strings.SplitAfter(f.reply, " ") {
			if err := f.options.StreamingFunc(ctx, []byte(word)); err != nil {
				return nil, err
			}
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestAssistant(m *fakeModel) *Assistant {
	return NewWithModel(m, "fake", 0, quiet)
}

func textOf(m llms.MessageContent) string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if tc, ok := p.(llms.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}

func TestDisabledAssistant(t *testing.T) {
	a, err := New(context.Background(), Config{}, quiet)
	require.NoError(t, err)
	assert.False(t, a.Enabled())

	var nilAssistant *Assistant
	assert.False(t, nilAssistant.Enabled())

	ctx := context.Background()
	_, err = a.StreamTips(ctx, CropMaize, "en", nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = a.Reply(ctx, nil, models.AssistantUserID, "en")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = a.EstimateYield(ctx, Plot{Crop: CropBeans}, "en")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = a.Directions(ctx, "Musanze", [2]float64{-1.5, 29.6}, "North plot", "en")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestStreamTips(t *testing.T) {
	m := &fakeModel{reply: "- Weed early\n- Plant after rain"}
	a := newTestAssistant(m)

	var chunks []string
	full, err := a.StreamTips(context.Background(), CropMaize, "rw", func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "- Weed early\n- Plant after rain", full)
	assert.Equal(t, full, strings.Join(chunks, ""))

	require.Len(t, m.messages, 1)
	prompt := textOf(m.messages[0])
	assert.Contains(t, prompt, "Maize")
	assert.Contains(t, prompt, "Respond in Kinyarwanda.")
}

func TestStreamTipsStopsOnWriterError(t *testing.T) {
	a := newTestAssistant(&fakeModel{reply: "one two three"})
	stop := errors.New("client gone")
	_, err := a.StreamTips(context.Background(), CropTea, "en", func(string) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func TestReplyBuildsHistory(t *testing.T) {
	m := &fakeModel{reply: "  Plant in September.  "}
	a := newTestAssistant(m)

	history := []models.Message{
		{SenderID: models.SystemSenderID, Kind: models.KindSystem, Text: "Chat started with Umujyanama AI."},
		{SenderID: models.AssistantUserID, Kind: models.KindText, Text: "Muraho!"},
		{SenderID: "user-you", Kind: models.KindImage, URL: "/uploads/images/leaf.png"},
		{SenderID: "user-you", Kind: models.KindText, Text: "When should I plant beans?"},
	}
	got, err := a.Reply(context.Background(), history, models.AssistantUserID, "en")
	require.NoError(t, err)
	assert.Equal(t, "Plant in September.", got)

	require.Len(t, m.messages, 4)
	assert.Equal(t, llms.ChatMessageTypeSystem, m.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, m.messages[1].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, m.messages[2].Role)
	assert.Equal(t, "[image attachment]", textOf(m.messages[2]))
	assert.Equal(t, "When should I plant beans?", textOf(m.messages[3]))
}

func TestGenerateErrors(t *testing.T) {
	t.Run("provider error", func(t *testing.T) {
		a := newTestAssistant(&fakeModel{err: errors.New("quota exceeded")})
		_, err := a.EstimateYield(context.Background(), Plot{Crop: CropBeans}, "en")
		assert.ErrorContains(t, err, "quota exceeded")
	})

	t.Run("no choices", func(t *testing.T) {
		a := newTestAssistant(&fakeModel{noChoice: true})
		_, err := a.EstimateYield(context.Background(), Plot{Crop: CropBeans}, "en")
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("cancelled context", func(t *testing.T) {
		a := NewWithModel(&fakeModel{reply: "x"}, "fake", 0.001, quiet)
		_, err := a.EstimateYield(context.Background(), Plot{Crop: CropBeans}, "en")
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = a.EstimateYield(ctx, Plot{Crop: CropBeans}, "en")
		assert.Error(t, err)
	})
}

func TestEstimateYieldPrompt(t *testing.T) {
	m := &fakeModel{reply: "About 1,800 kg."}
	a := newTestAssistant(m)

	plot := Plot{Name: "Hillside", Crop: CropPotatoes, SizeHectares: 0.5, Stage: "Flowering", Coordinates: [2]float64{-1.49, 29.63}}
	got, err := a.EstimateYield(context.Background(), plot, "en")
	require.NoError(t, err)
	assert.Equal(t, "About 1,800 kg.", got)

	prompt := textOf(m.messages[0])
	assert.Contains(t, prompt, "Hillside")
	assert.Contains(t, prompt, "0.50 hectares")
	assert.Contains(t, prompt, "Flowering")
}

func TestDirectionsUsesJSONMode(t *testing.T) {
	m := &fakeModel{reply: `{"narrative_directions": "Head north.", "route_polyline": [[-1.5, 29.6], [-1.49, 29.63]]}`}
	a := newTestAssistant(m)

	d, err := a.Directions(context.Background(), "Musanze market", [2]float64{-1.49, 29.63}, "Hillside", "en")
	require.NoError(t, err)
	assert.True(t, m.options.JSONMode)
	assert.Equal(t, "Head north.", d.Narrative)
	assert.Equal(t, [][2]float64{{-1.5, 29.6}, {-1.49, 29.63}}, d.Polyline)
}

func TestParseDirections(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    *Directions
		wantErr bool
	}{
		{
			name: "plain",
			raw:  `{"narrative_directions": "Turn left.", "route_polyline": [[1, 2]]}`,
			want: &Directions{Narrative: "Turn left.", Polyline: [][2]float64{{1, 2}}},
		},
		{
			name: "fenced",
			raw:  "```json\n{\"narrative_directions\": \"Go.\", \"route_polyline\": []}\n```",
			want: &Directions{Narrative: "Go.", Polyline: [][2]float64{}},
		},
		{name: "not json", raw: "Turn left at the church.", wantErr: true},
		{name: "missing narrative", raw: `{"route_polyline": [[1, 2]]}`, wantErr: true},
		{name: "empty narrative", raw: `{"narrative_directions": "", "route_polyline": []}`, wantErr: true},
		{name: "narrative not a string", raw: `{"narrative_directions": 3, "route_polyline": []}`, wantErr: true},
		{name: "missing polyline", raw: `{"narrative_directions": "Go."}`, wantErr: true},
		{name: "short point", raw: `{"narrative_directions": "Go.", "route_polyline": [[1]]}`, wantErr: true},
		{name: "string coordinates", raw: `{"narrative_directions": "Go.", "route_polyline": [["1", "2"]]}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDirections(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCropValid(t *testing.T) {
	assert.True(t, CropCassava.Valid())
	assert.False(t, Crop("Rice").Valid())
	assert.False(t, Crop("maize").Valid())
}
