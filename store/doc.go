// Package store provides addressed typed storage for compiled resources.
//
// Every resource is bound to a [Key]: a 64-bit identity hash paired with an
// attribute type tag. The pair is the slot, so the same identity can hold
// one value per type, and a key can be transmuted to a sibling type without
// disturbing readers of the original. Three scopes hold slots: Host values
// survive for the process, Node values belong to one node family, and
// Transient values last a single evaluation pass.
package store
