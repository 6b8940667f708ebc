// compileinfoprint is imported by the commands for the side effect of printing
// the compileinfo to os.Stderr at startup.
package compileinfoprint

import "github.com/carbocation/snptools/compileinfo"

func init() {
	compileinfo.PrintToStdErr()
}
