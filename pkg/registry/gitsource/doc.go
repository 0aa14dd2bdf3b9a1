// Package gitsource serves schema documents from a Git repository.
//
// Repository clones the configured branch into a local directory with go-git
// and pulls updates. Poller pulls on an interval and calls a reload function
// (normally registry.Registry.Reload) when a pull touched schema documents:
//
//	repo, err := gitsource.NewRepository(&cfg.Registry.Git)
//	if err != nil {
//	    return err
//	}
//	if err := repo.Clone(ctx); err != nil {
//	    return err
//	}
//	regCfg := cfg.Registry
//	regCfg.Dir = repo.SchemaPath()
//	reg, _ := registry.New(&regCfg, logger)
//	_ = reg.Load()
//
//	poller, _ := gitsource.NewPoller(repo, cfg.Registry.Git.Poll.Interval, reg.Reload, logger)
//	go poller.Run(ctx)
//
// When the schemas at a new commit fail to load, the clone is hard-reset to
// the last commit that loaded and the registry keeps serving its previous set.
// Authentication supports HTTPS tokens, SSH keys and anonymous access.
package gitsource
