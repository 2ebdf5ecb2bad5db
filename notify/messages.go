package notify

import "fmt"

// Message templates for settlement outcomes. Amounts are human-readable
// decimal strings.

// RedeemedMessage announces a completed voucher redemption.
func RedeemedMessage(tokenAmount, ethAmount string) string {
	return fmt.Sprintf("Voucher redeemed!\n\nReceived:\n%s TXTC\n%s ETH (gas)\n\nReply BALANCE to check.", tokenAmount, ethAmount)
}

// SwapCompletedMessage announces a completed token swap.
func SwapCompletedMessage(tokenAmount, ethAmount string) string {
	return fmt.Sprintf("Swap complete!\n\n%s TXTC swapped for %s ETH\n\nReply BALANCE to check.", tokenAmount, ethAmount)
}

// QueuedMessage announces a transfer accepted by the fast settlement channel.
func QueuedMessage(amount, token, toAddress string) string {
	return fmt.Sprintf("Transfer queued!\n\n%s %s to %s\n\nProcessing via fast settlement (instant finality).", amount, token, shortAddress(toAddress))
}

// SentMessage announces a completed on-chain send.
func SentMessage(amount, token, toAddress string) string {
	return fmt.Sprintf("Sent %s %s to %s\n\nReply BALANCE to check.", amount, token, shortAddress(toAddress))
}

// BridgedMessage announces a completed cross-chain transfer.
func BridgedMessage(amount, token, toChain string) string {
	return fmt.Sprintf("Bridge complete!\n\n%s %s sent to %s\n\nReply BALANCE to check.", amount, token, toChain)
}

// FailedMessage announces a failed transfer.
func FailedMessage(kind string) string {
	return fmt.Sprintf("Your %s could not be completed. No funds were moved. Please try again.", kind)
}

// PendingMessage announces a transfer whose outcome could not be confirmed.
func PendingMessage(kind string) string {
	return fmt.Sprintf("Your %s was submitted but confirmation timed out. Reply BALANCE to check before retrying.", kind)
}

// shortAddress abbreviates an address for SMS display.
func shortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:10] + "..."
}
