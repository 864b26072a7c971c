package compose

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Nixie-Tech-LLC/marquee/internal/effects"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
	"github.com/Nixie-Tech-LLC/marquee/internal/raster"
	"github.com/Nixie-Tech-LLC/marquee/internal/slots"
)

// DefaultMaxContentLength is the content limit in characters.
const DefaultMaxContentLength = 1000

func validateContent(content string, maxLen int) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ErrEmptyContent
	}
	if n := utf8.RuneCountInString(trimmed); n > maxLen {
		return fmt.Errorf("%w: %d characters, limit is %d", ErrContentTooLong, n, maxLen)
	}
	return nil
}

// ValidateOptions checks display options after defaults were applied.
func ValidateOptions(opts model.DisplayOptions) error {
	if opts.FontSize < model.MinFontSize || opts.FontSize > model.MaxFontSize {
		return fmt.Errorf("%w: font size %g outside %d-%d", ErrInvalidDisplayOptions, opts.FontSize, model.MinFontSize, model.MaxFontSize)
	}
	switch opts.Position {
	case model.PositionLeft, model.PositionCenter, model.PositionRight:
	default:
		return fmt.Errorf("%w: unknown position %q", ErrInvalidDisplayOptions, opts.Position)
	}
	if _, err := raster.ParseColor(opts.Color); err != nil {
		return fmt.Errorf("%w: color: %v", ErrInvalidDisplayOptions, err)
	}
	if _, err := raster.ParseColor(opts.BackgroundColor); err != nil {
		return fmt.Errorf("%w: background color: %v", ErrInvalidDisplayOptions, err)
	}
	if !effects.EntryCode(opts.DisplayEffect).Valid() {
		return fmt.Errorf("%w: unknown display effect %d", ErrInvalidDisplayOptions, opts.DisplayEffect)
	}
	if !effects.ExitCode(opts.EndEffect).Valid() {
		return fmt.Errorf("%w: unknown end effect %d", ErrInvalidDisplayOptions, opts.EndEffect)
	}
	if !effects.ValidSpeed(opts.DisplayEffectSpeed) || !effects.ValidSpeed(opts.EndEffectSpeed) {
		return fmt.Errorf("%w: effect speed must be %d-%d", ErrInvalidDisplayOptions, model.MinSpeed, model.MaxSpeed)
	}
	if opts.DisplayWaitTimeSeconds < 0 || opts.DisplayWaitTimeSeconds > model.MaxWaitSeconds {
		return fmt.Errorf("%w: wait time must be 0-%d seconds", ErrInvalidDisplayOptions, model.MaxWaitSeconds)
	}
	return nil
}

func validateSchedule(s model.Schedule) error {
	if s.DurationSeconds < 0 || s.DurationSeconds > model.MaxDurationSeconds {
		return fmt.Errorf("%w: duration must be 0-%d seconds", ErrInvalidSchedule, model.MaxDurationSeconds)
	}
	if !s.Valid() {
		return fmt.Errorf("%w: end must be after start", ErrInvalidSchedule)
	}
	return nil
}

// validate normalizes a submission. Nothing is mutated on error.
func validate(sub Submission, maxLen int) (Submission, error) {
	if sub.DeviceID == "" {
		return sub, slots.ErrEmptyDeviceID
	}
	if err := validateContent(sub.Content, maxLen); err != nil {
		return sub, err
	}
	sub.DisplayOptions = sub.DisplayOptions.WithDefaults()
	if err := ValidateOptions(sub.DisplayOptions); err != nil {
		return sub, err
	}
	if err := validateSchedule(sub.Schedule); err != nil {
		return sub, err
	}
	if sub.RoomNumber != nil {
		if err := slots.Validate(*sub.RoomNumber, sub.Urgent); err != nil {
			return sub, err
		}
	}
	return sub, nil
}
