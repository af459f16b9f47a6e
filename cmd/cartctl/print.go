package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/nikolayk812/cartsession/internal/domain"
)

func printCart(w io.Writer, s domain.CartState) {
	if s.IsEmpty() {
		fmt.Fprintln(w, "Your cart is empty")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tNAME\tQTY\tPRICE\tSUBTOTAL")
	for _, line := range s.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			line.Product.ID,
			line.Product.Name,
			line.Quantity,
			line.Product.Price,
			line.Product.Price.Mul(line.Quantity))
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "Items: %d\n", s.ItemCount())
	fmt.Fprintf(w, "Total: %s\n", s.Total())
}

func printInvoices(w io.Writer, invoices []domain.Invoice) {
	if len(invoices) == 0 {
		fmt.Fprintln(w, "No invoices")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tNAME\tEMAIL\tPHONE\tITEMS\tTOTAL")
	for _, inv := range invoices {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			inv.ID,
			inv.Date.Format(domain.OrderDateLayout),
			inv.Name,
			inv.Email,
			inv.Phone,
			inv.Items,
			inv.Total)
	}
	_ = tw.Flush()
}
