// Package retention prunes old validation history.
//
// Pruner deletes records older than retention.days and then trims the store
// to retention.max_records, oldest first. Scheduler runs the pruner on the
// cron expression in retention.prune_schedule:
//
//	pruner := retention.NewPruner(store, cfg.History.Retention, logger)
//	sched := retention.NewScheduler(pruner, cfg.History.Retention.PruneSchedule, logger)
//	if err := sched.Start(ctx); err != nil {
//	    return err
//	}
//	defer sched.Stop()
package retention
