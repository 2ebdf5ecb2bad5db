package evm

// Contract ABI fragments for the settlement token, the voucher manager, and
// the swap entry point. Only the functions and events the executor actually
// calls are included.

const erc20ABI = `[
	{"type":"function","name":"transfer","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"approve","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"allowance","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"balanceOf","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"mint","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"burnFromAny","inputs":[{"name":"from","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]}
]`

const voucherManagerABI = `[
	{"type":"function","name":"redeemVoucher","inputs":[{"name":"voucherCode","type":"string"},{"name":"user","type":"address"},{"name":"autoSwap","type":"bool"}],"outputs":[]},
	{"type":"event","name":"VoucherRedeemed","inputs":[{"name":"user","type":"address","indexed":true},{"name":"tokenAmount","type":"uint256","indexed":false},{"name":"ethAmount","type":"uint256","indexed":false}],"anonymous":false}
]`

const swapRouterABI = `[
	{"type":"function","name":"swapTokenForEth","inputs":[{"name":"user","type":"address"},{"name":"tokenAmount","type":"uint256"},{"name":"minEthOut","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"getCurrentPrice","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"estimateSwapOutput","inputs":[{"name":"amountIn","type":"uint256"},{"name":"tokenToEth","type":"bool"}],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"event","name":"SwapExecuted","inputs":[{"name":"user","type":"address","indexed":true},{"name":"tokenAmount","type":"uint256","indexed":false},{"name":"ethAmount","type":"uint256","indexed":false}],"anonymous":false}
]`
