// Package reconciler decides and applies the action for one registry record
// against the platform: create it, update it, or leave it alone. It also
// decides which platform modules a matched client should have enabled.
package reconciler

import (
	"context"
	"fmt"

	"github.com/agentstation/regsync/pkg/constants"
	"github.com/agentstation/regsync/pkg/differ"
	"github.com/agentstation/regsync/pkg/errors"
	"github.com/agentstation/regsync/pkg/identity"
	"github.com/agentstation/regsync/pkg/logging"
	"github.com/agentstation/regsync/pkg/records"
)

// Platform is the subset of the platform client the reconciler needs.
type Platform interface {
	GetFull(ctx context.Context, id string) (records.Remote, error)
	Create(ctx context.Context, payload map[string]any) (records.Remote, error)
	Update(ctx context.Context, id string, full records.Remote) error
	LookupDocument(ctx context.Context, identifier string) (map[string]any, error)
	CityCode(ctx context.Context, name, state string) (int, error)
}

// RegimeResolver maps a taxation label to a platform regime identifier.
type RegimeResolver interface {
	Resolve(ctx context.Context, label string) (string, error)
}

// Reconciler processes one record at a time. It holds no per-record state
// and is safe for concurrent use when its collaborators are.
type Reconciler struct {
	platform Platform
	regimes  RegimeResolver
	opts     *options
}

// New creates a Reconciler.
func New(platform Platform, regimes RegimeResolver, opts ...Option) (*Reconciler, error) {
	if platform == nil {
		return nil, errors.NewValidationError("platform", nil, "cannot be nil")
	}
	if regimes == nil {
		return nil, errors.NewValidationError("regimes", nil, "cannot be nil")
	}
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &Reconciler{platform: platform, regimes: regimes, opts: o}, nil
}

// DryRun reports whether mutations are suppressed.
func (r *Reconciler) DryRun() bool {
	return r.opts.dryRun
}

// Mode returns the configured mode.
func (r *Reconciler) Mode() Mode {
	return r.opts.mode
}

// Reconcile decides and applies the action for local. Every failure is
// captured in the returned Outcome; the error is non-nil only when the
// failure is an authentication error, which must abort the whole run.
func (r *Reconciler) Reconcile(ctx context.Context, local records.Local, index *records.Index) (Outcome, error) {
	key := local.Key()
	ctx = logging.WithRecord(ctx, key)
	logger := logging.FromContext(ctx)

	out := Outcome{
		Identifier: key,
		Name:       local.Name,
		DryRun:     r.opts.dryRun,
	}
	if out.Identifier == "" {
		out.Identifier = local.Identifier
	}

	if err := local.Validate(); err != nil {
		logger.Warn().Err(err).Msg("Skipping malformed record")
		return skipped(out, err.Error()), nil
	}

	remote, found := index.Lookup(key)

	var err error
	switch {
	case found && r.opts.mode.ModulesOnly():
		out.RemoteID = remote.ID()
		return skipped(out, constants.MsgModulesOnly), nil
	case !found && !r.opts.mode.AllowsCreate():
		return skipped(out, constants.ErrMsgNotRegistered), nil
	case found && !r.opts.mode.AllowsUpdate():
		out.RemoteID = remote.ID()
		return skipped(out, constants.ErrMsgAlreadyRegistered), nil
	case !found:
		out, err = r.create(ctx, local, out)
	default:
		out, err = r.update(ctx, local, remote, out)
	}

	if err != nil {
		out.Action = ActionError
		out.Success = false
		out.Message = err.Error()
		out.Err = err
		logger.Error().Err(err).Str("name", local.Name).Str("cause", errors.Cause(err)).Msg("Record failed")
		if errors.IsAuthentication(err) {
			return out, err
		}
		return out, nil
	}

	logger.Info().
		Str("action", string(out.Action)).
		Bool("dry_run", out.DryRun).
		Msg(out.Message)
	return out, nil
}

func (r *Reconciler) create(ctx context.Context, local records.Local, out Outcome) (Outcome, error) {
	ctx = logging.WithOperation(ctx, "create")

	regimeID, err := r.regimes.Resolve(ctx, local.Taxation)
	if err != nil {
		return out, err
	}

	if r.opts.dryRun {
		out.Action = ActionCreated
		out.Success = true
		out.Message = fmt.Sprintf("would register %s", identity.Format(out.Identifier))
		return out, nil
	}

	enrichment, err := r.enrichment(ctx, local)
	if err != nil {
		return out, err
	}
	payload := differ.CreatePayload(local, regimeID, enrichment)

	if err := r.opts.gate.Wait(ctx); err != nil {
		return out, err
	}
	created, err := r.platform.Create(context.WithoutCancel(ctx), payload)
	if err != nil {
		return out, err
	}

	out.Action = ActionCreated
	out.Success = true
	out.RemoteID = created.ID()
	out.Message = fmt.Sprintf("registered %s", identity.Format(out.Identifier))
	return out, nil
}

func (r *Reconciler) update(ctx context.Context, local records.Local, remote records.Remote, out Outcome) (Outcome, error) {
	ctx = logging.WithOperation(ctx, "update")
	out.RemoteID = remote.ID()

	changes := r.opts.differ.Compare(local, remote)
	out.Changes = changes
	if !changes.HasChanges() {
		out.Action = ActionNoChange
		out.Success = true
		out.Message = "already in sync"
		return out, nil
	}

	if r.opts.dryRun {
		out.Action = ActionUpdated
		out.Success = true
		out.Message = "would update: " + changes.String()
		return out, nil
	}

	if out.RemoteID == "" {
		return out, errors.NewValidationError("id", nil, "platform record has no identifier")
	}

	// A municipality is written by reference; without its code the field
	// cannot converge, so it is reported and left out of the write.
	var patchOpts []differ.PatchOption
	writable := changes
	if changes.Has(differ.FieldMunicipality) {
		code, err := r.cityCode(ctx, local)
		switch {
		case errors.IsAuthentication(err):
			return out, err
		case err != nil:
			writable = changes.Without(differ.FieldMunicipality)
			if !writable.HasChanges() {
				return skipped(out, "municipality differs: "+err.Error()), nil
			}
			logging.FromContext(ctx).Warn().Err(err).Msg("Municipality left unchanged")
		default:
			patchOpts = append(patchOpts, differ.WithCityCode(code))
		}
	}

	full, err := r.platform.GetFull(ctx, out.RemoteID)
	if err != nil {
		return out, err
	}

	// Only a taxation change rewrites the regime reference.
	regimeID := ""
	if changes.Has(differ.FieldTaxation) {
		if regimeID, err = r.regimes.Resolve(ctx, local.Taxation); err != nil {
			return out, err
		}
	}
	merged := differ.ApplyPatch(full, local, regimeID, patchOpts...)

	if err := r.opts.gate.Wait(ctx); err != nil {
		return out, err
	}
	if err := r.platform.Update(context.WithoutCancel(ctx), out.RemoteID, merged); err != nil {
		return out, err
	}

	out.Action = ActionUpdated
	out.Success = true
	out.Message = "updated: " + writable.String()
	return out, nil
}

// cityCode resolves the IBGE code of the registry's municipality.
func (r *Reconciler) cityCode(ctx context.Context, local records.Local) (int, error) {
	code, err := r.platform.CityCode(ctx, local.CityName(), local.UF())
	if err != nil {
		return 0, err
	}
	if code <= 0 {
		return 0, errors.NewNotFoundError("city", local.CityName())
	}
	return code, nil
}

// enrichment looks up registry-office data for a new client. Lookup failures
// other than authentication only cost the optional fields.
func (r *Reconciler) enrichment(ctx context.Context, local records.Local) (differ.Enrichment, error) {
	var e differ.Enrichment
	if !r.opts.enrich {
		return e, nil
	}
	logger := logging.FromContext(ctx)

	doc, err := r.platform.LookupDocument(ctx, local.Key())
	switch {
	case errors.IsAuthentication(err):
		return e, err
	case err != nil:
		logger.Warn().Err(err).Msg("Document lookup failed, creating without activity codes")
	default:
		e = differ.ParseEnrichment(doc)
	}

	city := local.CityName()
	if city == "" {
		city = e.City
	}
	if city == "" {
		return e, nil
	}
	code, err := r.platform.CityCode(ctx, city, local.UF())
	switch {
	case errors.IsAuthentication(err):
		return e, err
	case err != nil:
		logger.Warn().Err(err).Str("city", city).Msg("City lookup failed")
	default:
		e.IBGECode = code
	}
	return e, nil
}

func skipped(out Outcome, message string) Outcome {
	out.Action = ActionSkipped
	out.Success = false
	out.Message = message
	return out
}
