// Package i18n resolves a client language preference to one of the
// supported catalogs and exposes the localized strings the server emits.
package i18n

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
)

// Strings holds the localized texts used by the server
type Strings struct {
	LanguageName string

	ConnectedNotice   string // takes the other user's name
	ChatStartedNotice string // takes the other user's name

	ConnectionRequestFrom string
	NewMessageFrom        string
	NewMessageIn          string
	SentAnImage           string
	SentAVideo            string
	SentAVoiceMessage     string

	// Relative time labels. Magnitudes nil means humanize's English defaults.
	Ago        string
	FromNow    string
	Magnitudes []humanize.RelTimeMagnitude

	AssistantFallback string
	FeatureDisabled   string
	TipsError         string
	PredictionError   string
	DirectionsError   string
}

var supported = []language.Tag{
	language.English,
	language.MustParse("rw"),
}

var matcher = language.NewMatcher(supported)

// The label comes first in Kinyarwanda: "hashize iminota 10".
var kinyarwandaMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Second, Format: "ubu nyine", DivBy: time.Second},
	{D: 2 * time.Second, Format: "%s isegonda 1", DivBy: 1},
	{D: time.Minute, Format: "%s amasegonda %d", DivBy: time.Second},
	{D: 2 * time.Minute, Format: "%s umunota 1", DivBy: 1},
	{D: time.Hour, Format: "%s iminota %d", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "%s isaha 1", DivBy: 1},
	{D: humanize.Day, Format: "%s amasaha %d", DivBy: time.Hour},
	{D: 2 * humanize.Day, Format: "%s umunsi 1", DivBy: 1},
	{D: humanize.Week, Format: "%s iminsi %d", DivBy: humanize.Day},
	{D: 2 * humanize.Week, Format: "%s icyumweru 1", DivBy: 1},
	{D: humanize.Month, Format: "%s ibyumweru %d", DivBy: humanize.Week},
	{D: 2 * humanize.Month, Format: "%s ukwezi 1", DivBy: 1},
	{D: humanize.Year, Format: "%s amezi %d", DivBy: humanize.Month},
	{D: 2 * humanize.Year, Format: "%s umwaka 1", DivBy: 1},
	{D: humanize.LongTime, Format: "%s imyaka %d", DivBy: humanize.Year},
	{D: math.MaxInt64, Format: "%s igihe kirekire", DivBy: 1},
}

var catalogs = map[string]Strings{
	"en": {
		LanguageName:          "English",
		ConnectedNotice:       "You are now connected with %s.",
		ChatStartedNotice:     "Chat started with %s.",
		ConnectionRequestFrom: "Connection request from",
		NewMessageFrom:        "New message from",
		NewMessageIn:          "New message in",
		SentAnImage:           "Sent an image",
		SentAVideo:            "Sent a video",
		SentAVoiceMessage:     "Sent a voice message",
		Ago:                   "ago",
		FromNow:               "from now",
		AssistantFallback:     "Sorry, I couldn't connect. Please check your connection or API key.",
		FeatureDisabled:       "AI features are disabled because no API key is configured.",
		TipsError:             "Sorry, an error occurred while fetching tips. Please try again.",
		PredictionError:       "Sorry, the yield prediction could not be generated.",
		DirectionsError:       "Sorry, directions could not be generated.",
	},
	"rw": {
		LanguageName:          "Kinyarwanda",
		ConnectedNotice:       "Ubu muhujwe na %s.",
		ChatStartedNotice:     "Ikiganiro cyatangiye na %s.",
		ConnectionRequestFrom: "Ubusabe bwo guhuza buturutse kuri",
		NewMessageFrom:        "Ubutumwa bushya buturutse kuri",
		NewMessageIn:          "Ubutumwa bushya muri",
		SentAnImage:           "Yohereje ifoto",
		SentAVideo:            "Yohereje amashusho",
		SentAVoiceMessage:     "Yohereje ubutumwa bw'ijwi",
		Ago:                   "hashize",
		FromNow:               "mu",
		Magnitudes:            kinyarwandaMagnitudes,
		AssistantFallback:     "Tubiseguyeho, ntibyashobotse guhuza. Reba interineti cyangwa urufunguzo rwa API.",
		FeatureDisabled:       "Serivisi za AI ntizikora kuko nta rufunguzo rwa API rwashyizweho.",
		TipsError:             "Tubiseguyeho, habaye ikibazo mu kubona inama. Nyamuneka ongera ugerageze.",
		PredictionError:       "Tubiseguyeho, ntibyashobotse kugereranya umusaruro.",
		DirectionsError:       "Tubiseguyeho, ntibyashobotse kubona inzira.",
	},
}

// Match resolves language preferences such as "rw" or an Accept-Language
// header to a supported base language code. Unknown input yields "en".
func Match(prefs ...string) string {
	_, index := language.MatchStrings(matcher, prefs...)
	base, _ := supported[index].Base()
	return base.String()
}

// For returns the catalog for a language preference
func For(prefs ...string) Strings {
	return catalogs[Match(prefs...)]
}

// Connected formats the notice seeded into a newly accepted dm
func (s Strings) Connected(name string) string {
	return fmt.Sprintf(s.ConnectedNotice, name)
}

// ChatStarted formats the notice seeded into a newly started dm
func (s Strings) ChatStarted(name string) string {
	return fmt.Sprintf(s.ChatStartedNotice, name)
}

// RelTime renders t relative to now, e.g. "10 minutes ago"
func (s Strings) RelTime(t, now time.Time) string {
	if s.Magnitudes == nil {
		return humanize.RelTime(t, now, s.Ago, s.FromNow)
	}
	return humanize.CustomRelTime(t, now, s.Ago, s.FromNow, s.Magnitudes)
}
