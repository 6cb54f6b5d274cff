// Package discovery finds INDI servers on the local network.
//
// INDI servers advertise the _indi._tcp service over mDNS (the Avahi
// convention shipped with indiserver distributions). Browse watches
// for announcements and aggregates them into one entry per server
// instance, merging addresses seen on different interfaces; FindFirst
// is the common "connect to whatever is running" path.
package discovery
