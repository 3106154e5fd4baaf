// Package models defines the core domain models for ajopot.
//
// # Models
//
//   - User: Registered member account
//   - Group: A savings circle with a fixed member set and contribution
//   - Round: One payout cycle of a group (one recipient per round)
//   - Payment: A member's contribution for one round
//   - Wallet: Per-(group, member) balance record
//
// # Design Principles
//
// 1. **No object graph**: Relationships use ID strings, never pointers,
// so models can be loaded and stored independently.
// 2. **Explicit state**: Payment carries a single tagged status
// (pending → payer_confirmed → settled) instead of flag pairs.
// 3. **Frozen order**: A round carries its own copy of the group's
// payout order; once the first round starts, the order never changes.
package models
