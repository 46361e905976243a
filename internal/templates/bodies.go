package templates

const modulePropBody = `id=<% .Package.ID %>
name=<% .Package.Name %>
version=<% .Package.Version %>
versionCode=<% .Package.VersionCode %>
author=<% .Package.Author %>
description=<% .Package.Description %>
updateJson=
`

// updateBinaryBody is the recovery entry point. Magisk ignores it and runs customize.sh.
const updateBinaryBody = `#!/sbin/sh

ZIPFILE=$3
OUTFD=$2

ui_print() {
  echo "ui_print $1" > /proc/self/fd/$OUTFD
  echo "ui_print" > /proc/self/fd/$OUTFD
}

ui_print "*****************************"
ui_print "  <% .Package.Name %> Module"
ui_print "*****************************"
ui_print " "

mount /system 2>/dev/null
mount -o rw,remount /system 2>/dev/null

ui_print "Installing..."
mkdir -p /tmp/<% .Package.ID %>
cd /tmp/<% .Package.ID %> || exit 1
unzip -o "$ZIPFILE" 2>&1

cp -af system/* /system/ 2>&1

ui_print " "
ui_print "Installation complete"
ui_print " "

umount /system 2>/dev/null

exit 0
`

const updaterScriptBody = `#MAGISK
`

const sepolicyRuleBody = `# <% .Package.Name %> SELinux policy
# Lets <% .Service.ClientDomain %> and <% .Service.ServiceDomain %> talk over binder.

# Look up the service in service_manager
allow <% .Service.ClientDomain %> <% .Service.ServiceType %>:service_manager find

# Binder calls from the client to the service
allow <% .Service.ClientDomain %> <% .Service.ServiceType %>:binder { call transfer }

# Binder callbacks from the service to the client
allow <% .Service.ServiceDomain %> <% .Service.ClientDomain %>:binder { call transfer }
`

// serviceShBody runs late in boot. APatch and KernelSU do not load
// sepolicy.rule themselves, hence the live injection.
const serviceShBody = `#!/system/bin/sh
# <% .Package.Name %> service starter, runs after boot completes.

MODDIR=${0%/*}

until [ "$(getprop sys.boot_completed)" = "1" ]; do
  sleep 1
done

sleep 5

MAGISKPOLICY="/data/adb/ap/bin/magiskpolicy"
if [ ! -f "$MAGISKPOLICY" ]; then
  MAGISKPOLICY="/data/adb/magisk/magiskpolicy"
fi
if [ ! -f "$MAGISKPOLICY" ]; then
  MAGISKPOLICY="magiskpolicy"
fi

if command -v "$MAGISKPOLICY" > /dev/null 2>&1; then
  log -t <% .Service.LogTag %> "Injecting SELinux policies..."
  POLICY_FILE=/data/local/tmp/<% .Package.ID %>_policy.txt
  cat > "$POLICY_FILE" << 'EOFPOLICY'
allow <% .Service.ClientDomain %> <% .Service.ServiceType %> service_manager find
allow <% .Service.ClientDomain %> <% .Service.ServiceType %> binder call
allow <% .Service.ClientDomain %> <% .Service.ServiceType %> binder transfer
allow <% .Service.ServiceDomain %> <% .Service.ClientDomain %> binder call
allow <% .Service.ServiceDomain %> <% .Service.ClientDomain %> binder transfer
EOFPOLICY

  "$MAGISKPOLICY" --live --apply "$POLICY_FILE"
  if [ $? -eq 0 ]; then
    log -t <% .Service.LogTag %> "SELinux policies injected successfully"
  else
    log -t <% .Service.LogTag %> "Failed to inject SELinux policies"
  fi

  rm -f "$POLICY_FILE"
else
  log -t <% .Service.LogTag %> "Warning: magiskpolicy not found, SELinux policies not applied"
fi

if ! pgrep -x <% .Service.Binary %> > /dev/null 2>&1; then
  nohup /<% .BinaryPath %> > /dev/null 2>&1 &
  sleep 1
  if pgrep -x <% .Service.Binary %> > /dev/null 2>&1; then
    log -t <% .Service.LogTag %> "<% .Service.Binary %> started successfully"
  else
    log -t <% .Service.LogTag %> "Failed to start <% .Service.Binary %>"
  fi
else
  log -t <% .Service.LogTag %> "<% .Service.Binary %> already running"
fi
`

const customizeShBody = `#!/system/bin/sh

SKIPUNZIP=0

ui_print "*****************************"
ui_print "  <% .Package.Name %> Module"
ui_print "*****************************"
ui_print " "
ui_print "Installing <% .Package.Name %> <% .Package.Version %>..."

<% range .PermissionDirs %>[ -d "$MODPATH/system/<% . %>" ] && set_perm_recursive "$MODPATH/system/<% . %>" 0 0 0755 0644
<% end %>
[ -f "$MODPATH/<% .BinaryPath %>" ] && set_perm "$MODPATH/<% .BinaryPath %>" 0 2000 0755

ui_print " "
ui_print "Installation complete"
ui_print "Reboot the device to enable <% .Package.Name %>"
ui_print "<% .Service.Binary %> starts automatically after boot"
`
