/*

Package tokenflow defines interfaces used throughout the ledger, such as
storage, identities and persistence, along with the context helpers every
flow relies on.
Look into this package to get a brief overview of design decisions made
around interfaces and the transaction lifecycle building blocks: ledger,
contract, builder, collect, notary and finality.

*/

package tokenflow
