// Package bootstrap runs forge as a command-line tool.
//
// It loads typed settings, initializes logging and optional telemetry,
// creates build controllers from the settings and runs one build with
// startup/shutdown hooks.
//
// # Quick Start
//
//	settings, err := bootstrap.LoadSettings("forge")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app, err := bootstrap.NewApp(settings)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    _, err := app.Build(ctx, defineTargets)
//	    return err
//	})
//
// With build.dry_run set, Build only analyzes the graph and can write the
// plan as YAML to build.plan_file.
package bootstrap
