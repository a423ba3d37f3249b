package regsync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/regsync/pkg/constants"
	"github.com/agentstation/regsync/pkg/errors"
	"github.com/agentstation/regsync/pkg/logging"
	"github.com/agentstation/regsync/pkg/reconciler"
	"github.com/agentstation/regsync/pkg/records"
	"github.com/agentstation/regsync/pkg/regime"
	pkgsync "github.com/agentstation/regsync/pkg/sync"
)

// Sync reconciles locals against the platform. Every record ends with
// exactly one outcome in the result, in input order.
//
// Record failures never abort the run. An authentication failure or a
// cancelled context stops new records from starting; records already in
// flight finish, the rest are reported as skipped, and the partial result
// is returned together with the error.
func (c *Client) Sync(ctx context.Context, locals []records.Local, opts ...pkgsync.Option) (*pkgsync.Result, error) {
	// Step 0: Set context
	if ctx == nil {
		ctx = context.Background()
	}

	// Step 1: Parse and validate options
	options := pkgsync.NewOptions(opts...)
	if err := options.Validate(); err != nil {
		return nil, err
	}

	// Step 2: Setup context with timeout
	var cancel context.CancelFunc
	if options.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
	} else {
		cancel = func() {}
	}
	defer cancel()

	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.FromContext(ctx)

	result := &pkgsync.Result{
		RunID:     runID,
		DryRun:    options.DryRun,
		Mode:      options.Mode,
		StartedAt: time.Now(),
		Outcomes:  []reconciler.Outcome{},
	}
	defer func() {
		result.Duration = time.Since(result.StartedAt)
		c.metrics.ObserveRun(result.Duration, time.Now())
	}()

	// Step 3: Apply the record limit before any work
	if options.Limit > 0 && len(locals) > options.Limit {
		locals = locals[:options.Limit]
	}

	logger.Info().
		Int("records", len(locals)).
		Str("mode", options.Mode.String()).
		Bool("dry_run", options.DryRun).
		Int("workers", options.Workers).
		Dur("interval", options.Interval).
		Msg("Starting reconciliation")

	col := newCollector(len(locals), c.hooks, c.metrics)
	abort := func(err error) (*pkgsync.Result, error) {
		result.Outcomes, result.Stats = col.finish(locals, "not started: "+err.Error(), options.DryRun)
		logger.Error().Err(err).Msg("Reconciliation aborted")
		return result, err
	}

	// Step 4: Index the platform's clients
	remotes, err := c.platform.ListAll(ctx, options.PageSize)
	if err != nil {
		return abort(err)
	}
	index := records.NewIndex(remotes)
	result.RemoteCount = index.Len()
	result.RemoteDuplicates = index.Duplicates()
	c.metrics.SetRemoteClients(index.Len())
	if index.Duplicates() > 0 || index.Unkeyed() > 0 {
		logger.Warn().
			Int("duplicates", index.Duplicates()).
			Int("unkeyed", index.Unkeyed()).
			Msg("Platform listing has duplicate or unkeyed clients; first occurrence wins")
	}

	// Step 5: Build the run-scoped collaborators
	resolver := regime.NewResolver(c.platform, regime.WithKnownIDs(c.options.knownIDs))
	gate := reconciler.NewGate(options.Interval)
	rec, err := reconciler.New(c.platform, resolver,
		append(options.ReconcilerOptions(), reconciler.WithGate(gate))...)
	if err != nil {
		return abort(errors.WrapResource("create", "reconciler", "", err))
	}

	// Step 6: Reconcile every record
	if err := c.reconcileAll(ctx, rec, locals, index, options.Workers, col); err != nil {
		return abort(err)
	}
	result.Outcomes, result.Stats = col.finish(locals, "", options.DryRun)

	// Step 7: Configure modules for matched clients
	if options.ModulesEnabled() {
		if err := c.configureModules(ctx, locals, index, result, gate, options); err != nil {
			logger.Error().Err(err).Msg("Module configuration aborted")
			return result, err
		}
	}

	logger.Info().
		Int("total", result.Stats.Total).
		Int("created", result.Stats.Created).
		Int("updated", result.Stats.Updated).
		Int("no_change", result.Stats.NoChange).
		Int("skipped", result.Stats.Skipped).
		Int("errors", result.Stats.Errors).
		Int("regime_lookups", resolver.Lookups()).
		Msg("Reconciliation completed")

	return result, nil
}

// reconcileAll runs the reconciler over locals with at most workers records
// in flight. The group context is checked before each record starts; a
// running record keeps the run context, so a sibling's fatal error never
// interrupts it. Only a fatal error is returned.
func (c *Client) reconcileAll(ctx context.Context, rec *reconciler.Reconciler, locals []records.Local, index *records.Index, workers int, col *collector) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for i, local := range locals {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			start := time.Now()
			out, err := rec.Reconcile(ctx, local, index)
			col.add(i, out, time.Since(start))
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.NewResourceError("reconcile", "records", "", err)
	}
	return nil
}

// configureModules applies module settings to every record that matched a
// platform client and did not fail. In modules mode that is every matched
// record, since none was compared.
func (c *Client) configureModules(ctx context.Context, locals []records.Local, index *records.Index, result *pkgsync.Result, gate reconciler.Gate, options *pkgsync.Options) error {
	modules, err := reconciler.NewModules(c.platform,
		reconciler.WithGate(gate),
		reconciler.WithMode(options.Mode),
		reconciler.WithDryRun(options.DryRun),
	)
	if err != nil {
		return errors.WrapResource("create", "modules", "", err)
	}

	for i, local := range locals {
		if !moduleEligible(options.Mode, result.Outcomes[i]) {
			continue
		}
		client, ok := index.Lookup(local.Key())
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return errors.NewResourceError("configure", "modules", "", err)
		}

		out, err := modules.Apply(ctx, local, client)
		result.Modules = append(result.Modules, out)
		result.Stats.RecordModules(out)
		c.metrics.ObserveModule(constants.ModuleFederal, out.Decision.Federal, out.Err)
		c.metrics.ObserveModule(constants.ModuleServices, out.Decision.Services, out.Err)
		c.hooks.triggerModules(out)
		if err != nil {
			return err
		}
	}
	return nil
}

func moduleEligible(mode reconciler.Mode, o reconciler.Outcome) bool {
	switch o.Action {
	case reconciler.ActionUpdated, reconciler.ActionNoChange:
		return true
	case reconciler.ActionSkipped:
		return mode.ModulesOnly() && o.RemoteID != ""
	default:
		return false
	}
}
