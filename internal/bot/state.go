package bot

import "gearbot/internal/session"

// State names the menu currently shown to a user. Path parameters of the
// list states live in the session's current category and brand.
type State string

const (
	RootMenu                   State = "root_menu"
	BrandList                  State = "brand_list"
	ModelList                  State = "model_list"
	ProductDetail              State = "product_detail"
	PreferenceUsageQuestion    State = "preference_usage_question"
	PreferenceCategoryQuestion State = "preference_category_question"
	RecommendationResults      State = "recommendation_results"
	SetupGenreQuestion         State = "setup_genre_question"
	SetupHandSizeQuestion      State = "setup_hand_size_question"
	SetupSwitchQuestion        State = "setup_switch_question"
	SetupResult                State = "setup_result"
)

// StateOf returns the session's recorded state, RootMenu for new sessions.
func StateOf(s *session.Session) State {
	if s.State == "" {
		return RootMenu
	}
	return State(s.State)
}

func setState(s *session.Session, st State) { s.State = string(st) }
