// Package mocks provides test doubles for ports interfaces.
//
// These mocks are designed to be simple, thread-safe, in-memory implementations
// suitable for unit testing. Each mock provides:
//
//   - Default behavior backed by in-memory state
//   - Callback functions (xxxFn) for customizing behavior per test
//   - Helper methods for inspecting state directly
//
// # Usage Example
//
//	func TestGenerator(t *testing.T) {
//		registry := mocks.NewScheduleRegistry()
//		messages := mocks.NewMessageRepository(registry)
//		sender := mocks.NewSender()
//
//		// ... run code under test, then inspect sender.Sent()
//	}
//
// # Available Mocks
//
//   - MessageRepository: implements ports.MessageRepository
//   - ScheduleRegistry: implements ports.ScheduleRegistry and ports.TickLocker
//   - Sender: implements ports.Sender
//   - Completer: implements llm.Completer
package mocks
