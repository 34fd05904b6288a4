// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package globalstate defines the persistent key/value arena every execution
// reads from and commits to.
//
// # Why effects instead of writes
//
// An execution never mutates a Store directly. It works against a
// TrackingCopy, which records an ordered list of Effects (Write or Add
// transforms). When the execution succeeds the whole list is handed to
// Store.Commit, which applies it as one atomic batch; when it fails the
// TrackingCopy is dropped and nothing reaches the store.
//
// Add is kept as a transform all the way to the store, which applies it
// against the value current at commit time while holding its write lock.
// Two executions that both add 1 to the same slot therefore always produce
// +2, even if the host were to run them concurrently.
//
// Implementations live in subpackages: memory (default, ephemeral) and
// sqlite (persists across process runs).
package globalstate
