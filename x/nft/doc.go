/*
Package nft implements a registry of non-fungible tokens.

Every registry is an independent instance with its own owner and token
symbol. The registry is identified by the address of a condition derived
from its sequence ID, so that it can act as an authenticated party when it
notifies a receiver about a token sent to it.

Owners approve spenders per token, or operators for all of their tokens in
a registry. Receivers given to RegisterRoutes take tokens only through
SendMsg, which notifies them with a ReceiveMsg.

Tokens carry an opaque metadata blob. Minting stores the asking price in
that blob using the price package encoding.
*/
package nft
