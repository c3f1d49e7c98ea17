package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/spaceapi-core/internal/session"
)

type signOptions struct {
	secret    string
	sensor    string
	value     string
	sessionID string
}

// newSignCmd computes the signature an agent sends with a sensor update.
// With --session it prints the complete PUT body instead.
func newSignCmd() *cobra.Command {
	var opts signOptions

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a sensor value with a session secret",
		Long: `sign computes HMAC-SHA256(secret, message) for a sensor update, where
message is the netstring encoding of the sensor key followed by the value.

  spaceapi sign --secret <hex> --sensor people_now_present --value 3

Pass --session to print the JSON body for PUT /sensors/{sensor}.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSign(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.secret, "secret", "", "hex session secret returned by POST /sensors/{sensor}/sessions")
	f.StringVar(&opts.sensor, "sensor", "", "sensor key")
	f.StringVar(&opts.value, "value", "", "sensor value")
	f.StringVar(&opts.sessionID, "session", "", "session id; when set the full request body is printed")
	_ = cmd.MarkFlagRequired("secret") //nolint:errcheck // flag defined above
	_ = cmd.MarkFlagRequired("sensor") //nolint:errcheck // flag defined above

	return cmd
}

func runSign(cmd *cobra.Command, opts signOptions) error {
	if opts.value == "" {
		return errors.New("--value is required")
	}

	sig, err := session.Sign(opts.secret, opts.sensor, opts.value)
	if err != nil {
		return fmt.Errorf("signing: %w", err)
	}

	out := cmd.OutOrStdout()
	if opts.sessionID == "" {
		fmt.Fprintln(out, sig)
		return nil
	}

	body, err := json.Marshal(map[string]string{
		"value":      opts.value,
		"session_id": opts.sessionID,
		"signature":  sig,
	})
	if err != nil {
		return fmt.Errorf("encoding body: %w", err)
	}
	fmt.Fprintln(out, string(body))
	return nil
}
