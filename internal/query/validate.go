package query

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"yfmcp/internal/market"
)

var (
	validate = validator.New()

	// TSE codes are four characters: a leading digit followed by
	// digits or uppercase letters (e.g. "7203", "130A").
	tseCodePattern = regexp.MustCompile(`^[0-9][0-9A-Z]{3}$`)
)

const dateLayout = "2006-01-02"

func init() {
	_ = validate.RegisterValidation("tsecode", validateTSECode)
	_ = validate.RegisterValidation("tradedate", validateTradeDate)
}

func validateTSECode(fl validator.FieldLevel) bool {
	code, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return tseCodePattern.MatchString(code)
}

func validateTradeDate(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

type priceRequest struct {
	Code string `validate:"required,tsecode"`
}

type historyRequestInput struct {
	Code     string `validate:"required,tsecode"`
	Start    string `validate:"required,tradedate"`
	End      string `validate:"omitempty,tradedate"`
	Interval string `validate:"omitempty,oneof=1d 1wk 1mo"`
}

type historyRequest struct {
	start    time.Time
	end      time.Time
	interval string
}

func validateCode(code string) error {
	if err := validate.Struct(priceRequest{Code: code}); err != nil {
		return fmt.Errorf("%w: code %q must be a 4-character TSE code", market.ErrInvalidInput, code)
	}
	return nil
}

func validateQuery(q string) error {
	if strings.TrimSpace(q) == "" {
		return fmt.Errorf("%w: query must not be empty", market.ErrInvalidInput)
	}
	return nil
}

// parseHistoryRequest validates and resolves the history inputs before
// any upstream call. end defaults to today, interval to "1d".
func parseHistoryRequest(code, start, end, interval string, now func() time.Time) (*historyRequest, error) {
	in := historyRequestInput{Code: code, Start: start, End: end, Interval: interval}
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", market.ErrInvalidInput, describeFieldError(err))
	}

	startT, _ := time.Parse(dateLayout, start)
	endT := now().Truncate(24 * time.Hour)
	if end != "" {
		endT, _ = time.Parse(dateLayout, end)
	}
	if startT.After(endT) {
		return nil, fmt.Errorf("%w: start %s is after end %s", market.ErrInvalidInput, start, endT.Format(dateLayout))
	}
	if interval == "" {
		interval = "1d"
	}
	return &historyRequest{start: startT, end: endT, interval: interval}, nil
}

// selectPairs resolves a pair-name filter against the fixed pair set.
// An empty filter selects all pairs.
func selectPairs(pairs []string) ([]pair, error) {
	if len(pairs) == 0 {
		return fxPairs, nil
	}
	out := make([]pair, 0, len(pairs))
	for _, name := range pairs {
		name = strings.ToUpper(strings.TrimSpace(name))
		found := false
		for _, p := range fxPairs {
			if p.Name == name {
				out = append(out, p)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: unknown FX pair %q", market.ErrInvalidInput, name)
		}
	}
	return out, nil
}

func describeFieldError(err error) string {
	if ves, ok := err.(validator.ValidationErrors); ok && len(ves) > 0 {
		ve := ves[0]
		switch ve.Tag() {
		case "tsecode":
			return fmt.Sprintf("code %q must be a 4-character TSE code", ve.Value())
		case "tradedate":
			return fmt.Sprintf("%s %q must be a YYYY-MM-DD date", strings.ToLower(ve.Field()), ve.Value())
		case "oneof":
			return fmt.Sprintf("interval %q must be one of 1d, 1wk, 1mo", ve.Value())
		case "required":
			return fmt.Sprintf("%s is required", strings.ToLower(ve.Field()))
		}
	}
	return err.Error()
}
