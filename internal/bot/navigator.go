// Package bot implements the storefront's menu state machine. The Navigator
// applies one typed event to one session and drives a Presenter; it never
// sees transport details and never fails on catalog problems, which are
// rendered as messages instead.
package bot

import (
	"context"
	"errors"
	"fmt"

	"gearbot/internal/catalog"
	"gearbot/internal/event"
	"gearbot/internal/obs"
	"gearbot/internal/scoring"
	"gearbot/internal/session"
	"gearbot/internal/setup"
)

// DefaultCategory is used when leaving a detail view with no category on
// record.
const DefaultCategory = catalog.Keyboards

// Navigator is safe for concurrent use across sessions. Calls for the same
// session must be serialised by the caller.
type Navigator struct {
	store     catalog.Store
	engine    *scoring.Engine
	presenter Presenter
}

// NewNavigator wires a navigator to its collaborators.
func NewNavigator(store catalog.Store, engine *scoring.Engine, p Presenter) *Navigator {
	if engine == nil {
		engine = scoring.NewEngine(scoring.DefaultConfig())
	}
	return &Navigator{store: store, engine: engine, presenter: p}
}

// Handle applies ev to sess and presents the outcome at t. Category and brand
// are recorded only once the catalog confirms them. The returned error only
// reports presentation failures that could not be recovered; session fields
// written before the failure stay written.
func (n *Navigator) Handle(ctx context.Context, sess *session.Session, t Target, ev event.Event) error {
	switch ev.Kind {
	case event.Start:
		return n.showRoot(ctx, sess, t, Append)
	case event.BackToRoot:
		return n.showRoot(ctx, sess, t, Edit)

	case event.SelectCategory, event.BackToBrands:
		return n.showBrands(ctx, sess, t, ev.Category)
	case event.SelectBrand:
		return n.showModels(ctx, sess, t, ev.Category, ev.Brand)
	case event.SelectModel:
		return n.showDetail(ctx, sess, t, ev.Category, ev.Brand, ev.Model)
	case event.BackFromDetail, event.Similar:
		// Similar products are not ranked yet; the action lists the
		// brand's models like back does.
		return n.leaveDetail(ctx, sess, t)

	case event.GetRecommendations:
		setState(sess, PreferenceUsageQuestion)
		text, kb := usageMenu()
		return n.presenter.PresentMenu(ctx, t, Edit, text, kb)
	case event.SelectUsage:
		sess.Preferences = &session.Preferences{Usage: ev.Value}
		setState(sess, PreferenceCategoryQuestion)
		text, kb := categoryFilterMenu()
		return n.presenter.PresentMenu(ctx, t, Edit, text, kb)
	case event.RecommendCategory:
		return n.recommend(ctx, sess, t, ev.Category)
	case event.RecommendSkip:
		return n.recommend(ctx, sess, t, "")

	case event.StartSetup:
		sess.Setup = nil
		setState(sess, SetupGenreQuestion)
		text, kb := optionMenu(textGenreQuestion, setup.Genres, event.SelectGenre)
		return n.presenter.PresentMenu(ctx, t, Edit, text, kb)
	case event.SelectGenre:
		sess.Setup = &session.SetupAnswers{Genre: ev.Value}
		setState(sess, SetupHandSizeQuestion)
		text, kb := optionMenu(textHandQuestion, setup.HandSizes, event.SelectHand)
		return n.presenter.PresentMenu(ctx, t, Edit, text, kb)
	case event.SelectHand:
		setupAnswers(sess).HandSize = ev.Value
		setState(sess, SetupSwitchQuestion)
		text, kb := optionMenu(textSwitchQuestion, setup.SwitchTypes, event.SelectSwitch)
		return n.presenter.PresentMenu(ctx, t, Edit, text, kb)
	case event.SelectSwitch:
		setupAnswers(sess).SwitchType = ev.Value
		return n.buildSetup(ctx, sess, t)
	}
	return fmt.Errorf("unhandled event kind %s", ev.Kind)
}

func setupAnswers(sess *session.Session) *session.SetupAnswers {
	if sess.Setup == nil {
		sess.Setup = &session.SetupAnswers{}
	}
	return sess.Setup
}

func (n *Navigator) showRoot(ctx context.Context, sess *session.Session, t Target, mode Mode) error {
	setState(sess, RootMenu)
	text, kb := rootMenu()
	return n.presenter.PresentMenu(ctx, t, mode, text, kb)
}

// load fetches a fresh snapshot. ok is false when the catalog is unavailable
// and the unavailable message has been presented. A document with no known
// category counts as unavailable.
func (n *Navigator) load(ctx context.Context, t Target, mode Mode) (*catalog.Catalog, bool, error) {
	c, err := n.store.Load(ctx)
	if err != nil || c == nil || c.IsEmpty() {
		obs.Logger.Warn("catalog_unavailable", "chat_id", t.ChatID, "error", err)
		return nil, false, n.presenter.PresentError(ctx, t, mode, textUnavailable)
	}
	return c, true, nil
}

func (n *Navigator) showBrands(ctx context.Context, sess *session.Session, t Target, cat string) error {
	c, ok, err := n.load(ctx, t, Edit)
	if !ok {
		return err
	}
	brands, ok := c.Brands(cat)
	if !ok {
		return n.presenter.PresentError(ctx, t, Edit, categoryNotFound(cat))
	}
	sess.CurrentCategory = cat
	setState(sess, BrandList)
	text, kb := brandMenu(cat, brands)
	return n.presenter.PresentMenu(ctx, t, Edit, text, kb)
}

func (n *Navigator) showModels(ctx context.Context, sess *session.Session, t Target, cat, brand string) error {
	c, ok, err := n.load(ctx, t, Edit)
	if !ok {
		return err
	}
	if _, ok := c.Brands(cat); !ok {
		return n.presenter.PresentError(ctx, t, Edit, categoryNotFound(cat))
	}
	models, ok := c.Models(cat, brand)
	if !ok {
		return n.presenter.PresentError(ctx, t, Edit, brandNotFound(cat, brand))
	}
	if len(models) == 0 {
		return n.presenter.PresentError(ctx, t, Edit, noModels(brand))
	}
	sess.CurrentCategory = cat
	sess.CurrentBrand = brand
	setState(sess, ModelList)
	text, kb := modelMenu(cat, brand, models)
	return n.presenter.PresentMenu(ctx, t, Edit, text, kb)
}

// showDetail resolves the product afresh. Failures are appended below the
// current menu and leave the session as it was, so the user can pick again.
func (n *Navigator) showDetail(ctx context.Context, sess *session.Session, t Target, cat, brand, model string) error {
	c, ok, err := n.load(ctx, t, Append)
	if !ok {
		return err
	}
	p, err := c.Resolve(cat, brand, model)
	if err != nil {
		obs.Logger.Info("product_resolve_failed", "category", cat, "brand", brand, "model", model, "error", err)
		msg := textLoadError
		if errors.Is(err, catalog.ErrNotFound) {
			msg = textProductNotFound
		}
		return n.presenter.PresentError(ctx, t, Append, msg)
	}
	sess.CurrentCategory = cat
	sess.CurrentBrand = brand
	setState(sess, ProductDetail)
	return n.presentDetail(ctx, t, Edit, detailText(p), p.PhotoURL, detailKeyboard(p))
}

func (n *Navigator) leaveDetail(ctx context.Context, sess *session.Session, t Target) error {
	cat := sess.CurrentCategory
	if cat == "" {
		cat = DefaultCategory
	}
	if sess.CurrentBrand == "" {
		return n.showBrands(ctx, sess, t, cat)
	}
	return n.showModels(ctx, sess, t, cat, sess.CurrentBrand)
}

// presentDetail shows an image-bearing view, retrying as text when the image
// is rejected.
func (n *Navigator) presentDetail(ctx context.Context, t Target, mode Mode, text, image string, kb Keyboard) error {
	err := n.presenter.PresentDetail(ctx, t, mode, text, image, kb)
	if err == nil || image == "" {
		return err
	}
	obs.Logger.Warn("photo_fallback", "chat_id", t.ChatID, "image", image, "error", err)
	return n.presenter.PresentDetail(ctx, t, mode, photoFallbackPrefix+text, "", kb)
}

func (n *Navigator) recommend(ctx context.Context, sess *session.Session, t Target, category string) error {
	c, ok, err := n.load(ctx, t, Edit)
	if !ok {
		return err
	}
	var prefs scoring.Preferences
	if sess.Preferences != nil {
		prefs.Usage = sess.Preferences.Usage
	}
	recs := n.engine.Recommend(prefs, c, category)
	setState(sess, RecommendationResults)

	back := Keyboard{mainMenuRow()}
	if len(recs) == 0 {
		return n.presenter.PresentMenu(ctx, t, Edit, textNoRecs, back)
	}
	if err := n.presenter.PresentMenu(ctx, t, Edit, textRecsHeader, back); err != nil {
		return err
	}
	for i, r := range recs {
		text, kb := recommendationCard(i+1, r)
		if err := n.presentDetail(ctx, t, Append, text, r.PhotoURL, kb); err != nil {
			return fmt.Errorf("send recommendation %d of %d: %w", i+1, len(recs), err)
		}
	}
	return nil
}

func (n *Navigator) buildSetup(ctx context.Context, sess *session.Session, t Target) error {
	c, ok, err := n.load(ctx, t, Edit)
	if !ok {
		return err
	}
	a := setupAnswers(sess)
	bundle := setup.Match(setup.Answers{Genre: a.Genre, HandSize: a.HandSize, SwitchType: a.SwitchType}, c)
	setState(sess, SetupResult)
	if err := n.presenter.PresentMenu(ctx, t, Edit, textSetupReady, nil); err != nil {
		return err
	}
	return n.presenter.PresentMenu(ctx, t, Append, setupText(bundle), Keyboard{mainMenuRow()})
}
