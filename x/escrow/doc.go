/*
Package escrow implements an asset for payment swap.

A custodian account receives tokens sent from trusted registries. When a
token arrives, the engine confirms the custodian holds it, reads the asking
price from the token metadata and, if the custodian holds enough currency,
pays the seller and forwards the token to the payer of record in a single
atomic batch.

A token that could not be settled stays recorded in the ledger. It can be
settled later, once the custodian is funded, or returned to the depositor
with a recover message. The payer of record can sweep all currency held by
the custodian with a refund message.
*/
package escrow
