package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/houraiteahouse/hourai/automod/banstore"
	"github.com/houraiteahouse/hourai/automod/setstore"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("automod")

// Read access to the ban cache, as needed by validators.
type BanLookup interface {
	GetUserBans(ctx context.Context, userID uint64) ([]banstore.BanRecord, error)
}

// runtime for running the validator chain against newly joined members.
//
// NOTE: Logger and Rules are expected to be set; Bans and Sets are optional.
type Engine struct {
	Logger *slog.Logger
	Rules  RuleSet
	Bans   BanLookup
	Sets   setstore.SetStore
	Bot    BotInfo
	// Overridable for tests. Defaults to time.Now
	Clock func() time.Time
}

func (eng *Engine) now() time.Time {
	if eng.Clock != nil {
		return eng.Clock()
	}
	return time.Now()
}

func (eng *Engine) NewMemberContext(ctx context.Context, g *Guild, m Member) *MemberContext {
	return &MemberContext{
		Ctx:    ctx,
		Logger: eng.Logger.With("guild", g.ID, "member", m.ID),
		Member: m,
		Guild:  g,
		Bot:    eng.Bot,
		Now:    eng.now(),
		engine: eng,
	}
}

// Runs a full validation pass over a member of the given guild.
func (eng *Engine) ValidateMember(ctx context.Context, g *Guild, m Member) (*Effects, error) {
	if g == nil {
		return nil, fmt.Errorf("validating member %d: missing guild", m.ID)
	}
	ctx, span := tracer.Start(ctx, "ValidateMember")
	defer span.End()
	span.SetAttributes(attribute.Int64("guild", int64(g.ID)), attribute.Int64("member", int64(m.ID)))

	start := time.Now()
	c := eng.NewMemberContext(ctx, g, m)
	eng.Logger.Debug("validating member", "guild", g.ID, "member", m.ID)
	eff := eng.Rules.CallValidators(c)
	eff.CanonicalLogLine()

	outcome := Rejected.String()
	if eff.IsApproved() {
		outcome = Approved.String()
	}
	span.SetAttributes(attribute.String("outcome", outcome))
	validationCount.WithLabelValues(outcome).Inc()
	validationDuration.Observe(time.Since(start).Seconds())
	return eff, nil
}

// Only the rejection side of a pass. Used when deciding whether existing members may be granted the validation role.
func (eng *Engine) RejectionReasons(ctx context.Context, g *Guild, m Member) ([]Reason, error) {
	eff, err := eng.ValidateMember(ctx, g, m)
	if err != nil {
		return nil, err
	}
	return eff.Rejections, nil
}
