// Package shutdown coordinates graceful process termination.
//
// Components register named hooks; on SIGINT/SIGTERM (or when the
// context passed to Wait is canceled) hooks run in reverse order of
// registration under a shared timeout.
//
//	h := shutdown.NewHandler(10*time.Second, logger)
//	h.OnShutdown("http", srv.Shutdown)
//	err := h.Wait(ctx)
package shutdown
