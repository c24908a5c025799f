// Package domain defines the core business entities of the task chat service
// (conversations, messages, tasks) together with their validation rules and
// the errors those rules produce.
package domain
