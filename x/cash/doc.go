/*
Package cash is the currency ledger of the application. Every address owns
a wallet holding coins of any number of denominations. The escrow
custodian is just another address: funds deposited to the escrow are held
in the custodian wallet and paid out from it.
*/
package cash
