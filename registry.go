// Copyright 2018 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package obelisk

// Sender delivers a reply over the worker's connection. Handlers must
// invoke it exactly once per request, synchronously or not.
type Sender func(reply *Message)

// CommandHandler computes the reply for one request and delivers it
// through send. Handler-level failures are carried inside the reply
// payload's error code, not surfaced to the worker.
type CommandHandler func(request *Message, send Sender)

// Interface groups the handler capabilities attached to a registry. The
// same interface is attached to the secure and public workers. Nil fields
// leave the corresponding command unreachable (lookups report NotFound).
type Interface struct {
	Address         AddressHandlers
	Blockchain      BlockchainHandlers
	TransactionPool TransactionPoolHandlers
	Protocol        ProtocolHandlers
}

// AddressHandlers serves address subscription commands.
type AddressHandlers struct {
	Subscribe2   CommandHandler
	Unsubscribe2 CommandHandler
}

// BlockchainHandlers serves confirmed-chain query commands.
type BlockchainHandlers struct {
	FetchBlockHeader            CommandHandler
	FetchBlockHeight            CommandHandler
	FetchBlockTransactionHashes CommandHandler
	FetchLastHeight             CommandHandler
	FetchTransaction            CommandHandler
	FetchTransactionIndex       CommandHandler
	FetchSpend                  CommandHandler
	FetchHistory2               CommandHandler
	FetchStealth2               CommandHandler
	FetchStealthTransaction     CommandHandler
	Broadcast                   CommandHandler
	Validate                    CommandHandler
}

// TransactionPoolHandlers serves unconfirmed-pool query commands.
type TransactionPoolHandlers struct {
	FetchTransaction CommandHandler
	Broadcast        CommandHandler
	Validate2        CommandHandler
}

// ProtocolHandlers serves node introspection commands.
type ProtocolHandlers struct {
	TotalConnections CommandHandler
}

type registration struct {
	command string
	handler CommandHandler
	enabled bool
}

// Registry maps command names to handlers. It is built once at worker
// construction and never mutated afterward, so the single dispatch
// goroutine reads it without synchronization. Obsoleted command names stay
// registered but disabled: the mapping is a wire contract, entries are
// added or disabled, never renamed or deleted.
type Registry struct {
	entries  []registration
	handlers map[string]CommandHandler
}

// NewRegistry builds the v3 command registry for the given interface.
//
// address.fetch_history, address.renew and address.subscribe are obsoleted
// in v3 (replaced by subscribe2/unsubscribe2). blockchain.fetch_history
// and blockchain.fetch_stealth are obsoleted in v3 (hash reversal),
// replaced by the *2 forms. transaction_pool.validate is obsoleted in v3
// (sends unconfirmed outputs), replaced by validate2.
// protocol.broadcast_transaction is obsoleted in v3 (renamed to
// transaction_pool.broadcast).
func NewRegistry(iface Interface) *Registry {
	r := &Registry{handlers: make(map[string]CommandHandler)}

	r.disable("address.renew")
	r.disable("address.subscribe")
	r.disable("address.fetch_history")
	r.attach("address.subscribe2", iface.Address.Subscribe2)
	r.attach("address.unsubscribe2", iface.Address.Unsubscribe2)

	r.disable("blockchain.fetch_stealth")
	r.disable("blockchain.fetch_history")
	r.attach("blockchain.fetch_block_header", iface.Blockchain.FetchBlockHeader)
	r.attach("blockchain.fetch_block_height", iface.Blockchain.FetchBlockHeight)
	r.attach("blockchain.fetch_block_transaction_hashes", iface.Blockchain.FetchBlockTransactionHashes)
	r.attach("blockchain.fetch_last_height", iface.Blockchain.FetchLastHeight)
	r.attach("blockchain.fetch_transaction", iface.Blockchain.FetchTransaction)
	r.attach("blockchain.fetch_transaction_index", iface.Blockchain.FetchTransactionIndex)
	r.attach("blockchain.fetch_spend", iface.Blockchain.FetchSpend)
	r.attach("blockchain.fetch_history2", iface.Blockchain.FetchHistory2)
	r.attach("blockchain.fetch_stealth2", iface.Blockchain.FetchStealth2)
	r.attach("blockchain.fetch_stealth_transaction", iface.Blockchain.FetchStealthTransaction)
	r.attach("blockchain.broadcast", iface.Blockchain.Broadcast)
	r.attach("blockchain.validate", iface.Blockchain.Validate)

	r.disable("transaction_pool.validate")
	r.attach("transaction_pool.fetch_transaction", iface.TransactionPool.FetchTransaction)
	r.attach("transaction_pool.broadcast", iface.TransactionPool.Broadcast)
	r.attach("transaction_pool.validate2", iface.TransactionPool.Validate2)

	r.disable("protocol.broadcast_transaction")
	r.attach("protocol.total_connections", iface.Protocol.TotalConnections)

	return r
}

func (r *Registry) attach(command string, handler CommandHandler) {
	r.entries = append(r.entries, registration{command, handler, true})
	if handler != nil {
		r.handlers[command] = handler
	}
}

func (r *Registry) disable(command string) {
	r.entries = append(r.entries, registration{command: command})
}

// Find returns the handler for command. Disabled entries and entries with
// no bound handler report not found.
func (r *Registry) Find(command string) (CommandHandler, bool) {
	handler, ok := r.handlers[command]
	return handler, ok
}

// Commands returns the dispatchable command names in registration order.
func (r *Registry) Commands() []string {
	var names []string
	for _, e := range r.entries {
		if e.enabled && e.handler != nil {
			names = append(names, e.command)
		}
	}
	return names
}

// Disabled returns the obsoleted command names kept for documentation and
// safe re-enablement.
func (r *Registry) Disabled() []string {
	var names []string
	for _, e := range r.entries {
		if !e.enabled {
			names = append(names, e.command)
		}
	}
	return names
}

// Size returns the total number of registrations, disabled included.
func (r *Registry) Size() int {
	return len(r.entries)
}
