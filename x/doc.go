/*
Package x contains the extensions the escrow application is built from.

Extensions implement common functionality (Handler, Decorator, etc.) and
are combined together in cmd/escrowd to construct the application.
Sub-packages provide the currency ledger (cash), the asset registry (nft),
transaction signatures (sigs), the escrow itself (escrow) and decorators
shared by all of them (utils).
*/
package x
