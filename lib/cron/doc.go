// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cron parses the schedules of scheduled membership rules and
// computes their next occurrence.
//
// Expressions use the standard 5-field syntax parsed by
// github.com/robfig/cron/v3:
//
//	┌───────────── minute (0-59)
//	│ ┌───────────── hour (0-23)
//	│ │ ┌───────────── day of month (1-31)
//	│ │ │ ┌───────────── month (1-12 or JAN-DEC)
//	│ │ │ │ ┌───────────── day of week (0-6 or SUN-SAT)
//	│ │ │ │ │
//	* * * * *
//
// Descriptors (@hourly, @daily, @every 10m) are accepted as well. All
// schedules are evaluated in UTC.
package cron
