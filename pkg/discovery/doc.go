// Package discovery implements mDNS discovery of Pulse brokers.
//
// Brokers announce themselves as _pulse._tcp services with TXT records
// describing the cluster they belong to. Clients browse for brokers on the
// local network instead of configuring addresses by hand.
//
// Browsing aggregates announcements by instance name: a broker reachable on
// several interfaces appears once, with all its addresses merged.
package discovery
