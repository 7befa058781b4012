package assistant

import (
	"context"
	"fmt"
	"strings"

	"ubuhinzi360/server/internal/models"

	"github.com/tidwall/gjson"
	"github.com/tmc/langchaingo/llms"
)

// Crop is a crop the tips and estimates know about
type Crop = models.Crop

const (
	CropMaize    = models.CropMaize
	CropBeans    = models.CropBeans
	CropPotatoes = models.CropPotatoes
	CropCassava  = models.CropCassava
	CropCoffee   = models.CropCoffee
	CropTea      = models.CropTea
)

// StreamTips streams a short markdown list of farming tips for crop. Each
// fragment is passed to onChunk as it arrives; the full text is returned.
func (a *Assistant) StreamTips(ctx context.Context, crop Crop, lang string, onChunk func(chunk string) error) (string, error) {
	prompt := fmt.Sprintf(`You are an expert agricultural advisor for East Africa.
Provide a concise, actionable list of 3-4 daily or weekly farming tips for growing %s in Rwanda.
The tips should be practical for a small-scale farmer. Use simple language.
Format the output as a markdown list.
Respond in %s.`, crop, languageName(lang))

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	return a.generate(ctx, "tips", messages,
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			if onChunk == nil {
				return nil
			}
			return onChunk(string(chunk))
		}),
	)
}

// Reply answers the latest turn of a conversation with the assistant.
// System notices are left out of the history.
func (a *Assistant) Reply(ctx context.Context, history []models.Message, assistantID, lang string) (string, error) {
	system := fmt.Sprintf(`You are a friendly farming assistant for smallholder farmers in Rwanda.
Answer questions about crops, weather, soil and markets briefly and practically.
Respond in %s.`, languageName(lang))

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
	}
	for _, m := range history {
		if m.IsSystem() {
			continue
		}
		role := llms.ChatMessageTypeHuman
		if m.SenderID == assistantID {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, historyText(m)))
	}
	return a.generate(ctx, "reply", messages)
}

func historyText(m models.Message) string {
	switch m.Kind {
	case models.KindText:
		return m.Text
	case models.KindImage, models.KindVideo, models.KindAudio:
		if m.Text != "" {
			return fmt.Sprintf("[%s attachment] %s", m.Kind, m.Text)
		}
		return fmt.Sprintf("[%s attachment]", m.Kind)
	default:
		return m.Text
	}
}

// Plot describes a land plot for a yield estimate
type Plot struct {
	Name         string     `json:"name"`
	Crop         Crop       `json:"crop"`
	SizeHectares float64    `json:"size"`
	Stage        string     `json:"farmingStage"`
	Coordinates  [2]float64 `json:"coordinates"`
}

// PlotFrom describes a registered plot for the prompts
func PlotFrom(p models.Plot) Plot {
	return Plot{
		Name:         p.Name,
		Crop:         p.Crop,
		SizeHectares: p.Size,
		Stage:        string(p.FarmingStage),
		Coordinates:  p.Coordinates,
	}
}

// EstimateYield asks for a short yield estimate of a plot
func (a *Assistant) EstimateYield(ctx context.Context, plot Plot, lang string) (string, error) {
	prompt := fmt.Sprintf(`You are an agronomist in Rwanda. Estimate the expected harvest for this plot.
Plot: %s
Crop: %s
Size: %.2f hectares
Stage: %s
Location: %.5f, %.5f
Give the estimate in kilograms with a one-sentence explanation of the main factors.
Respond in %s.`,
		plot.Name, plot.Crop, plot.SizeHectares, plot.Stage,
		plot.Coordinates[0], plot.Coordinates[1], languageName(lang))

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	return a.generate(ctx, "yield", messages)
}

// Directions is a route to a plot
type Directions struct {
	Narrative string       `json:"narrativeDirections"`
	Polyline  [][2]float64 `json:"routePolyline"`
}

// Directions asks for walking or driving directions from a free-text start
// to a destination plot. The reply must be JSON of the form
// {"narrative_directions": string, "route_polyline": [[lat, lng], ...]}.
func (a *Assistant) Directions(ctx context.Context, from string, to [2]float64, destination, lang string) (*Directions, error) {
	prompt := fmt.Sprintf(`Give directions in Rwanda from "%s" to the plot "%s" at coordinates %.5f, %.5f.
Reply with JSON only, in exactly this shape:
{"narrative_directions": "<step by step directions>", "route_polyline": [[lat, lng], ...]}
The polyline must start near the origin and end at the destination.
Write the narrative in %s.`, from, destination, to[0], to[1], languageName(lang))

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	raw, err := a.generate(ctx, "directions", messages, llms.WithJSONMode())
	if err != nil {
		return nil, err
	}
	return ParseDirections(raw)
}

// ParseDirections validates and decodes a directions payload. Markdown code
// fences around the JSON are tolerated.
func ParseDirections(raw string) (*Directions, error) {
	raw = stripFence(raw)
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrMalformedResponse)
	}

	narrative := gjson.Get(raw, "narrative_directions")
	if narrative.Type != gjson.String || narrative.String() == "" {
		return nil, fmt.Errorf("%w: narrative_directions must be a non-empty string", ErrMalformedResponse)
	}

	route := gjson.Get(raw, "route_polyline")
	if !route.IsArray() {
		return nil, fmt.Errorf("%w: route_polyline must be an array", ErrMalformedResponse)
	}

	d := &Directions{Narrative: narrative.String(), Polyline: [][2]float64{}}
	for i, point := range route.Array() {
		coords := point.Array()
		if !point.IsArray() || len(coords) != 2 || coords[0].Type != gjson.Number || coords[1].Type != gjson.Number {
			return nil, fmt.Errorf("%w: route_polyline[%d] must be a [lat, lng] pair", ErrMalformedResponse, i)
		}
		d.Polyline = append(d.Polyline, [2]float64{coords[0].Float(), coords[1].Float()})
	}
	return d, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
