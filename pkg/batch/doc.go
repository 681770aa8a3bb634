// Package batch applies one registry operation to a list of hosts.
//
// Every host runs the same sequence on its own session:
//
//	Resolve -> Probe (optional) -> Connect -> OpenKey -> Invoke -> Collect -> Release
//
// and ends in exactly one of three states. A negative probe or a declined
// confirmation leaves the host Skipped; any error from Connect, OpenKey or
// Invoke leaves it Failed with the error's kind; otherwise it Succeeded.
// Release runs on every path.
//
// A host's failure never stops the batch. Hosts may run concurrently on a
// bounded worker pool (Options.Workers), but the Outcome always lists hosts,
// results and failures in input order.
//
//	r := batch.New(t, batch.Options{Hive: types.LocalMachine, Workers: 8})
//	out := r.Run(ctx, []string{"srv01", "srv02"}, batch.GetValue(`SOFTWARE\Vendor`, "Port", access.GetOptions{}))
//	for _, res := range out.Results {
//	    fmt.Println(res.ComputerName, res.Data)
//	}
//	for _, f := range out.Failures {
//	    fmt.Println(f.Host, f.Kind, f.Message)
//	}
package batch
