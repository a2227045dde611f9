// Package queue provides driven.TaskQueue implementations.
//
// Background runs tasks on N lanes. Each lane is a FIFO drained by one
// goroutine and tasks are assigned to lanes by hashing their key, so work
// for one entity is never reordered while unrelated entities proceed in
// parallel. Sync runs tasks inline and is meant for tests and one-shot
// commands.
package queue
