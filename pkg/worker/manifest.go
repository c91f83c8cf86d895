package worker

import "github.com/ArkinSolomon/xpkg-core/pkg/pkgs"

// Manifest is the metadata file written into every processed artifact
// (spec.md §6).
type Manifest struct {
	ManifestVersion int                    `json:"manifestVersion"`
	PackageName     string                 `json:"packageName"`
	PackageID       string                 `json:"packageId"`
	PackageVersion  string                 `json:"packageVersion"`
	AuthorID        string                 `json:"authorId"`
	Dependencies    []pkgs.DependencyEntry `json:"dependencies"`
	Platforms       pkgs.Platforms         `json:"platforms"`
}

// defaultScripts returns the install/uninstall/upgrade script bodies used
// to fill in any the contributor's archive is missing, chosen by package
// type (spec.md §4.4 step 8).
func defaultScripts(packageType pkgs.Type) map[string]string {
	switch packageType {
	case pkgs.TypeAircraft, pkgs.TypeLivery:
		return map[string]string{
			"install.ska":   "# default install script: copy contents into Aircraft/\n",
			"uninstall.ska": "# default uninstall script: remove the installed directory\n",
			"upgrade.ska":   "# default upgrade script: replace the installed directory\n",
		}
	case pkgs.TypeScenery:
		return map[string]string{
			"install.ska":   "# default install script: copy contents into Custom Scenery/ and register in scenery_packs.ini\n",
			"uninstall.ska": "# default uninstall script: remove directory and scenery_packs.ini entry\n",
			"upgrade.ska":   "# default upgrade script: replace directory, leave scenery_packs.ini entry\n",
		}
	case pkgs.TypePlugin:
		return map[string]string{
			"install.ska":   "# default install script: copy contents into Resources/plugins/\n",
			"uninstall.ska": "# default uninstall script: remove the installed plugin directory\n",
			"upgrade.ska":   "# default upgrade script: replace the installed plugin directory\n",
		}
	default:
		return map[string]string{
			"install.ska":   "# default install script: copy contents into the package directory\n",
			"uninstall.ska": "# default uninstall script: remove the installed directory\n",
			"upgrade.ska":   "# default upgrade script: replace the installed directory\n",
		}
	}
}
