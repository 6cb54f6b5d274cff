// Package client maintains a live mirror of an INDI server's device
// tree and layers change-and-confirm operations on top of it.
//
// One reader goroutine owns all mutation: it pulls decoded commands
// from the transport and folds them into notify cells. Everything
// else (GUIs, exporters, capture automation) observes the tree
// through cell subscriptions and affects it only by sending commands
// back through the connection.
//
// The protocol has no correlation IDs, so a change is confirmed by
// watching the parameter's own cell until its values converge to the
// requested ones.
package client
