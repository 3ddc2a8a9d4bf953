// Package ctl implements the chiller-ctl operator commands.
//
// Each command connects to the supervisor, performs one supervisory action
// (list, summary, acknowledge, reset, push signals) and prints the reply as JSON.
package ctl
