// Package bot is the glue between the Discord gateway (arikawa), the command
// table, the per-user rate limiter and the server listing. The bot:
//   - answers "!" commands from commands.json with an embed, at most
//     rateLimit served commands per user per window (staff are exempt);
//   - logs deleted and edited messages of the allowed guild to the log
//     channel;
//   - keeps its presence at "<Game> with <N> players", refreshed every
//     presenceInterval.
//
// Dispatcher holds the decisions and does no I/O, so it can be driven with
// plain MessageEvent values. Bot translates gateway events into those values
// and renders the results.
//
// Lifecycle:
//
//	b, err := bot.New(cfg, table)
//	if err != nil { log.Fatal(err) }
//	if err := b.Start(ctx); err != nil { log.Fatal(err) }
//	defer b.Stop()
//	<-ctx.Done()
package bot
