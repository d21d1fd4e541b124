package main

import (
	"context"
	"fmt"
	"io"
)

// printRedirector hands the customer over to the gateway by printing the
// payment page address.
type printRedirector struct {
	out io.Writer
}

func (r printRedirector) Redirect(_ context.Context, paymentURL string) error {
	_, err := fmt.Fprintf(r.out, "open this page to pay:\n  %s\n", paymentURL)
	return err
}
