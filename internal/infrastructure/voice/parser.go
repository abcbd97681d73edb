// Package voice turns Spanish speech transcripts into structured
// commands. Transcription itself happens on the client; by the time a
// phrase reaches the hub it is plain text like "hice 20 flexiones" or
// "bebí 500 ml de agua".
package voice

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/taker-hub/taker-fitness-hub/internal/application/command"
	"github.com/taker-hub/taker-fitness-hub/internal/domain/activity"
)

// Exercise types recognized from speech. They double as mission keys
// for the bonus quests, so the spelling must match the daily catalog.
const (
	ExerciseFlexiones   = "flexiones"
	ExerciseAbdominales = "abdominales"
	ExerciseSentadillas = "sentadillas"
	ExerciseCorrer      = "correr"
	ExerciseEntrenar    = "entrenamiento"
)

// mlPerGlass is the assumed volume when a hunter says "un vaso de agua".
const mlPerGlass = 250

// minutesPerKilometer converts spoken running distance into workout
// duration at an assumed easy pace.
const minutesPerKilometer = 6

var numberPattern = regexp.MustCompile(`\d+`)

// accentFolder folds accented vowels so "bebí" and "bebi" parse alike.
// Speech-to-text output is inconsistent about accents.
var accentFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u",
)

// Parser matches transcripts against known Spanish phrase patterns.
// It implements command.VoiceParser.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

var _ command.VoiceParser = (*Parser)(nil)

// Parse parses the transcript. Returns activity.ErrUnknownCommand when
// no pattern matches.
func (p *Parser) Parse(transcript string) (command.ParsedVoiceCommand, error) {
	text := accentFolder.Replace(strings.ToLower(strings.TrimSpace(transcript)))
	amount, hasAmount := firstNumber(text)

	switch {
	case contains(text, "flexion", "push up"):
		return exerciseCommand(ExerciseFlexiones, amount, hasAmount)

	case contains(text, "abdominal", "sit up"):
		return exerciseCommand(ExerciseAbdominales, amount, hasAmount)

	case contains(text, "sentadilla", "squat"):
		return exerciseCommand(ExerciseSentadillas, amount, hasAmount)

	case contains(text, "entren") && hasAmount:
		// "entrené 30 minutos" - duration-based training session.
		return command.ParsedVoiceCommand{
			Intent:          activity.IntentExercise,
			ExerciseType:    ExerciseEntrenar,
			DurationMinutes: amount,
		}, nil

	case contains(text, "corri", "corre", "kilometro", "km"):
		if !hasAmount {
			return unknown()
		}
		return command.ParsedVoiceCommand{
			Intent:          activity.IntentExercise,
			ExerciseType:    ExerciseCorrer,
			Amount:          amount,
			DurationMinutes: amount * minutesPerKilometer,
		}, nil

	case contains(text, "agua", "beb", "tome"):
		return hydrationCommand(text, amount, hasAmount)

	case contains(text, "estado", "progreso", "nivel", "como voy"):
		return command.ParsedVoiceCommand{Intent: activity.IntentStatus}, nil

	case contains(text, "mision"):
		return command.ParsedVoiceCommand{Intent: activity.IntentMissions}, nil

	default:
		return unknown()
	}
}

// exerciseCommand builds a rep-based exercise command. A countable
// exercise without a number is not actionable.
func exerciseCommand(exerciseType string, amount int, hasAmount bool) (command.ParsedVoiceCommand, error) {
	if !hasAmount || amount <= 0 {
		return unknown()
	}
	return command.ParsedVoiceCommand{
		Intent:       activity.IntentExercise,
		ExerciseType: exerciseType,
		Amount:       amount,
	}, nil
}

// hydrationCommand interprets water phrases. "un litro" scales to
// milliliters, "un vaso" assumes a standard glass, a bare number is
// taken as milliliters already.
func hydrationCommand(text string, amount int, hasAmount bool) (command.ParsedVoiceCommand, error) {
	ml := mlPerGlass

	switch {
	case hasAmount && contains(text, "litro"):
		ml = amount * 1000
	case hasAmount:
		ml = amount
	case contains(text, "litro"):
		ml = 1000
	}

	if ml <= 0 {
		return unknown()
	}

	return command.ParsedVoiceCommand{
		Intent: activity.IntentHydration,
		Amount: ml,
	}, nil
}

func unknown() (command.ParsedVoiceCommand, error) {
	return command.ParsedVoiceCommand{Intent: activity.IntentUnknown}, activity.ErrUnknownCommand
}

func contains(text string, patterns ...string) bool {
	for _, p := range patterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func firstNumber(text string) (int, bool) {
	match := numberPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return n, true
}
