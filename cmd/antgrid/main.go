/*
Copyright © 2026 the AntGrid authors.
This file is part of AntGrid.

AntGrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

AntGrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with AntGrid.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command antgrid is a command-line interface for gridding species
// occurrence records into equal-area richness maps.
package main

import (
	"fmt"
	"os"

	"github.com/lessardlab/Mapping-Ant-Species-Richness/richnessutil"
)

func main() {
	if err := richnessutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
