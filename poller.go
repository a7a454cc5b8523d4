package goaten

// Readiness polling is implemented per-platform:
//   - poller_linux.go (epoll)
//   - poller_darwin.go (kqueue)
//
// Always Close a Registration before closing its underlying fd, to avoid
// stale event delivery on fd recycling.
