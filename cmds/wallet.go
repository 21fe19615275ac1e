package cmds

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ipfs-force-community/zuck-wallet/types"
)

var WalletCmds = []*cli.Command{stateCmd, connectCmd, confirmCmd, disconnectCmd, pairingCmd, watchCmd}

var stateCmd = &cli.Command{
	Name:  "state",
	Usage: "show the current wallet connection",
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewWalletClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		state, err := api.GetState(cctx.Context)
		if err != nil {
			return err
		}
		return printJSON(state)
	},
}

var connectCmd = &cli.Command{
	Name:      "connect",
	Usage:     "connect a wallet, pairing wallets print the QR code uri",
	ArgsUsage: "<phantom|coinbase|walletconnect>",
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return fmt.Errorf("expect one wallet type")
		}
		kind, err := types.ParseWalletType(cctx.Args().First())
		if err != nil {
			return err
		}

		api, closer, err := NewWalletClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		res, err := api.Connect(cctx.Context, kind)
		if err != nil {
			return err
		}
		if res.ShowPairing && res.Pairing != nil {
			fmt.Println(res.Message)
			fmt.Println(res.Pairing.URI)
			fmt.Printf("session %s expires at %s\n", res.Pairing.ID, res.Pairing.ExpiresAt.Format("15:04:05"))
			return nil
		}
		return printJSON(res)
	},
}

var confirmCmd = &cli.Command{
	Name:      "confirm",
	Usage:     "report a connection completed outside the daemon",
	ArgsUsage: "<wallet-type> <address>",
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 2 {
			return fmt.Errorf("expect wallet type and address")
		}
		kind, err := types.ParseWalletType(cctx.Args().Get(0))
		if err != nil {
			return err
		}

		api, closer, err := NewWalletClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		res, err := api.ConfirmExternalConnection(cctx.Context, kind, cctx.Args().Get(1))
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var disconnectCmd = &cli.Command{
	Name:  "disconnect",
	Usage: "forget the connected wallet",
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewWalletClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		change, err := api.Disconnect(cctx.Context)
		if err != nil {
			return err
		}
		return printJSON(change)
	},
}

var pairingCmd = &cli.Command{
	Name:      "pairing",
	Usage:     "show a pairing session",
	ArgsUsage: "<session-id>",
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return fmt.Errorf("expect session id")
		}

		api, closer, err := NewWalletClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		session, err := api.GetPairingSession(cctx.Context, cctx.Args().First())
		if err != nil {
			return err
		}
		return printJSON(session)
	},
}

var watchCmd = &cli.Command{
	Name:  "watch",
	Usage: "print wallet state changes until interrupted",
	Action: func(cctx *cli.Context) error {
		api, closer, err := NewWalletClient(cctx)
		if err != nil {
			return err
		}
		defer closer()

		changes, err := api.ListenState(cctx.Context)
		if err != nil {
			return err
		}
		for change := range changes {
			data, err := json.Marshal(change)
			if err != nil {
				return err
			}
			fmt.Println(string(data))
		}
		return nil
	},
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, " ", "\t")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
